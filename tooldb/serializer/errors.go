package serializer

import (
	"fmt"

	"github.com/hzeller/tooldb/tooldb"
)

func ioError(err error, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %w", tooldb.ErrIO, fmt.Sprintf(format, args...), err)
}

func formatError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", tooldb.ErrFormat, fmt.Sprintf(format, args...))
}

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", tooldb.ErrUnsupportedFeature, fmt.Sprintf(format, args...))
}

// loadParams converts decoded parameter values into the kinds a tool
// accepts.
func loadParams(toolID string, decoded map[string]any) (tooldb.Params, error) {
	params := make(tooldb.Params, len(decoded))
	for name, v := range decoded {
		nv, err := tooldb.NormalizeValue(v)
		if err != nil {
			return nil, formatError("tool %s parameter %s: %v", toolID, name, err)
		}
		params[name] = nv
	}
	return params, nil
}

// checkParams rejects values a format can't write.
func checkParams(t *tooldb.Tool) error {
	for _, name := range t.Params.Names() {
		if _, err := tooldb.NormalizeValue(t.Params[name]); err != nil {
			return unsupported("tool %s parameter %s: %v", t.ID, name, err)
		}
	}
	return nil
}

// checkSnapshot runs checkParams on every tool, so that a format fails
// before it touches the previous contents.
func checkSnapshot(snap *tooldb.Snapshot) error {
	for _, lib := range snap.Libraries {
		for i := range lib.Tools {
			if err := checkParams(&lib.Tools[i].Tool); err != nil {
				return err
			}
		}
	}
	return nil
}
