package pkg

import (
	"io"

	"go.uber.org/multierr"
)

// CombinedWriter writes to all of its writers, a failing writer does not stop the others.
// Used for logs going to both stdout and the log file, and for reports copied to an output file.
type CombinedWriter struct {
	Writers []io.Writer
}

func NewCombinedWriter(writers ...io.Writer) *CombinedWriter {
	return &CombinedWriter{
		Writers: append([]io.Writer(nil), writers...),
	}
}

// Write reports len(p) when at least one writer took the whole message,
// with the errors of the failed writers combined.
func (cw *CombinedWriter) Write(p []byte) (int, error) {
	var (
		err      error
		anyWrote bool
	)
	for _, w := range cw.Writers {
		written, werr := w.Write(p)
		if werr == nil && written < len(p) {
			werr = io.ErrShortWrite
		}
		if werr != nil {
			err = multierr.Append(err, werr)
			continue
		}
		anyWrote = true
	}

	if !anyWrote {
		return 0, err
	}
	return len(p), err
}
