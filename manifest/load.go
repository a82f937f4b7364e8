package manifest

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/ctorbridge/errors"
)

//go:embed schema.cue
var schemaSource string

// Format is a manifest encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFromPath picks the format from a file extension. JSON is read as YAML.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, true
	case ".cue":
		return FormatCUE, true
	default:
		return "", false
	}
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	format, ok := FormatFromPath(path)
	if !ok {
		return nil, errors.Unsupported(errors.PhaseLoad, "manifest extension "+filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	return Parse(data, format, filepath.Base(path))
}

// Parse decodes data, checks it against the schema and validates it.
// name labels CUE error positions.
func Parse(data []byte, format Format, name string) (*Manifest, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, errors.ParseFailed("manifest schema", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Manifest"))

	var m Manifest
	var value cue.Value

	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&m); err != nil {
			return nil, errors.ParseFailed("yaml manifest "+name, err)
		}
		value = ctx.Encode(m)
	case FormatCUE:
		value = ctx.CompileBytes(data, cue.Filename(name))
	default:
		return nil, errors.Unsupported(errors.PhaseParse, "manifest format "+string(format))
	}
	if err := value.Err(); err != nil {
		return nil, errors.ParseFailed("manifest "+name, err)
	}

	unified := def.Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidData, err, "manifest "+name+" does not match schema")
	}

	if format == FormatCUE {
		if err := unified.Decode(&m); err != nil {
			return nil, errors.ParseFailed("cue manifest "+name, err)
		}
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}
