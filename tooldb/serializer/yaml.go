package serializer

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"

	"github.com/hzeller/tooldb/tooldb"
)

const yamlVersion = 1

func init() {
	Register("yaml", NewYAML)
}

type yamlDB struct {
	Version   int           `yaml:"version"`
	Libraries []yamlLibrary `yaml:"libraries"`
}

type yamlLibrary struct {
	ID    string     `yaml:"id"`
	Label string     `yaml:"label"`
	Tools []yamlTool `yaml:"tools"`
}

type yamlTool struct {
	ID     string     `yaml:"id"`
	Label  string     `yaml:"label"`
	Shape  string     `yaml:"shape"`
	Pocket int        `yaml:"pocket"`
	Params yamlParams `yaml:"params"`
}

// yamlParams encodes with explicit scalar tags, so that 6.0 stays a float
// and "6" stays a string.
type yamlParams map[string]any

func (p yamlParams) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range tooldb.Params(p).Names() {
		value := &yaml.Node{Kind: yaml.ScalarNode}
		switch x := p[name].(type) {
		case string:
			value.Tag, value.Value = "!!str", x
		case bool:
			value.Tag, value.Value = "!!bool", strconv.FormatBool(x)
		case int64:
			value.Tag, value.Value = "!!int", strconv.FormatInt(x, 10)
		case float64:
			s := strconv.FormatFloat(x, 'g', -1, 64)
			if !strings.ContainsAny(s, ".eE") {
				s += ".0"
			}
			value.Tag, value.Value = "!!float", s
		default:
			return nil, unsupported("parameter %s: value %v of type %T", name, x, x)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name}, value)
	}
	return node, nil
}

// YAML keeps the whole database in one YAML document.
type YAML struct {
	path string
}

func NewYAML(path string) (tooldb.Serializer, error) {
	return &YAML{path: path}, nil
}

// Load reads the file; a file that doesn't exist yet is an empty database.
func (y *YAML) Load() (*tooldb.Snapshot, error) {
	data, err := os.ReadFile(y.path)
	if os.IsNotExist(err) {
		return &tooldb.Snapshot{}, nil
	}
	if err != nil {
		return nil, ioError(err, "read %s", y.path)
	}
	var raw yamlDB
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, formatError("%s: %v", y.path, err)
	}
	if raw.Version > yamlVersion {
		return nil, formatError("%s: unknown version %d", y.path, raw.Version)
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
		"path":      y.path,
		"libraries": len(snap.Libraries),
		"tools":     snap.NumTools(),
	}).Debug("Read yaml database")
	return snap, nil
}

func (y *YAML) Save(snap *tooldb.Snapshot) error {
	if err := checkSnapshot(snap); err != nil {
		return err
	}
	raw := yamlDB{Version: yamlVersion, Libraries: []yamlLibrary{}}
	for _, lib := range snap.Libraries {
		rl := yamlLibrary{ID: lib.ID, Label: lib.Label, Tools: []yamlTool{}}
		for _, st := range lib.Tools {
			rl.Tools = append(rl.Tools, yamlTool{
				ID:     st.Tool.ID,
				Label:  st.Tool.Label,
				Shape:  st.Tool.Shape,
				Pocket: st.Pocket,
				Params: yamlParams(st.Tool.Params),
			})
		}
		raw.Libraries = append(raw.Libraries, rl)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(raw); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := os.WriteFile(y.path, buf.Bytes(), 0o644); err != nil {
		return ioError(err, "write %s", y.path)
	}
	log.WithFields(log.Fields{
		"path":      y.path,
		"libraries": len(snap.Libraries),
		"tools":     snap.NumTools(),
	}).Debug("Wrote yaml database")
	return nil
}
