package serializer

import (
	"os"

	"github.com/apex/log"
	"github.com/blacktop/go-plist"

	"github.com/hzeller/tooldb/tooldb"
)

const plistVersion = 1

func init() {
	Register("plist", NewPlist)
}

type plistDB struct {
	Version   int            `plist:"version"`
	Libraries []plistLibrary `plist:"libraries"`
}

type plistLibrary struct {
	ID    string      `plist:"id"`
	Label string      `plist:"label"`
	Tools []plistTool `plist:"tools"`
}

type plistTool struct {
	ID     string         `plist:"id"`
	Label  string         `plist:"label"`
	Shape  string         `plist:"shape"`
	Pocket int            `plist:"pocket"`
	Params map[string]any `plist:"params"`
}

// Plist keeps the whole database in one XML property list. Integers and
// reals are distinct plist types, so numbers round-trip exactly.
type Plist struct {
	path string
}

func NewPlist(path string) (tooldb.Serializer, error) {
	return &Plist{path: path}, nil
}

func (p *Plist) Load() (*tooldb.Snapshot, error) {
	data, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return &tooldb.Snapshot{}, nil
	}
	if err != nil {
		return nil, ioError(err, "read %s", p.path)
	}
	var raw plistDB
	if _, err := plist.Unmarshal(data, &raw); err != nil {
		return nil, formatError("%s: %v", p.path, err)
	}
	if raw.Version > plistVersion {
		return nil, formatError("%s: unknown version %d", p.path, raw.Version)
	}
	snap := &tooldb.Snapshot{}
	for _, rl := range raw.Libraries {
		lib := tooldb.SnapshotLibrary{ID: rl.ID, Label: rl.Label}
		for _, rt := range rl.Tools {
			params, err := loadParams(rt.ID, rt.Params)
			if err != nil {
				return nil, err
			}
			lib.Tools = append(lib.Tools, tooldb.SnapshotTool{
				Pocket: rt.Pocket,
				Tool:   tooldb.Tool{ID: rt.ID, Label: rt.Label, Shape: rt.Shape, Params: params},
			})
		}
		snap.Libraries = append(snap.Libraries, lib)
	}
	log.WithFields(log.Fields{
		"path":      p.path,
		"libraries": len(snap.Libraries),
		"tools":     snap.NumTools(),
	}).Debug("Read plist database")
	return snap, nil
}

func (p *Plist) Save(snap *tooldb.Snapshot) error {
	raw := plistDB{Version: plistVersion, Libraries: []plistLibrary{}}
	for _, lib := range snap.Libraries {
		rl := plistLibrary{ID: lib.ID, Label: lib.Label, Tools: []plistTool{}}
		for _, st := range lib.Tools {
			if err := checkParams(&st.Tool); err != nil {
				return err
			}
			params := make(map[string]any, len(st.Tool.Params))
			for name, v := range st.Tool.Params {
				params[name], _ = tooldb.NormalizeValue(v)
			}
			rl.Tools = append(rl.Tools, plistTool{
				ID:     st.Tool.ID,
				Label:  st.Tool.Label,
				Shape:  st.Tool.Shape,
				Pocket: st.Pocket,
				Params: params,
			})
		}
		raw.Libraries = append(raw.Libraries, rl)
	}
	data, err := plist.MarshalIndent(raw, plist.XMLFormat, "\t")
	if err != nil {
		return unsupported("%v", err)
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return ioError(err, "write %s", p.path)
	}
	log.WithFields(log.Fields{
		"path":      p.path,
		"libraries": len(snap.Libraries),
		"tools":     snap.NumTools(),
	}).Debug("Wrote plist database")
	return nil
}
