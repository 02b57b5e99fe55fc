package logging

import "io"

// EventLogWriter returns a writer that appends raw runner protocol lines to
// the run's events.ndjson. Writes go through the shared async writer so the
// event stream never blocks on disk.
func (l *FileLogger) EventLogWriter() (io.Writer, error) {
	writer, err := l.getAsyncWriter(l.EventsPath())
	if err != nil {
		return nil, err
	}
	return asyncFileWriterAdapter{writer: writer}, nil
}

// asyncFileWriterAdapter adapts an AsyncFile to io.Writer.
type asyncFileWriterAdapter struct {
	writer *AsyncFile
}

func (a asyncFileWriterAdapter) Write(p []byte) (int, error) {
	if err := a.writer.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}
