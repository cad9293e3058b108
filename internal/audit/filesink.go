package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"

	"github.com/meridian-grc/riskflow/internal/model"
)

// FileSink writes one JSON audit file per run into a directory. File names
// embed the run ID and date, so concurrent runs never clobber each other.
type FileSink struct {
	dir string
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "audit: create log dir %s", dir)
	}
	return &FileSink{dir: dir}, nil
}

// Path returns the file name an audit record will be written to.
func (f *FileSink) Path(rec *model.AuditRecord) string {
	name := fmt.Sprintf("run_%s_%s.json", rec.RunID, rec.Timestamp.Format("2006-01-02"))
	return filepath.Join(f.dir, name)
}

func (f *FileSink) Emit(_ context.Context, rec *model.AuditRecord) error {
	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return eris.Wrap(err, "audit: marshal record")
	}

	path := f.Path(rec)
	// O_EXCL guards against a run ID collision overwriting another run's
	// evidence.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return eris.Wrapf(err, "audit: create %s", path)
	}
	defer file.Close()

	if _, err := file.Write(payload); err != nil {
		return eris.Wrapf(err, "audit: write %s", path)
	}
	return nil
}
