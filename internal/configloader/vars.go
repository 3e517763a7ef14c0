package configloader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/savaki/datalake-loader/internal/utils"
)

const (
	// VarsFolder holds default.vars.json and per-file override vars
	VarsFolder = "vars"

	// DefaultVarsFile applies to every config file
	DefaultVarsFile = "default.vars.json"

	// VarsSuffix is appended to a config file stem to name its override vars file
	VarsSuffix = ".vars.json"
)

// varsFile is the on-disk layout: {"vars": {"<environment>": {"NAME": "value"}}}
type varsFile struct {
	Vars map[string]map[string]any `json:"vars"`
}

// VarsFiles returns the vars files that apply to configFile, in precedence
// order, keeping only those that exist under root
func VarsFiles(root, configFile string) []string {
	stem := strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	candidates := []string{
		filepath.Join(root, VarsFolder, DefaultVarsFile),
		filepath.Join(root, VarsFolder, stem+VarsSuffix),
	}

	var files []string
	for _, f := range candidates {
		if _, err := os.Stat(f); err == nil {
			files = append(files, f)
		}
	}
	return files
}

// LoadVars reads the variables for environment from each file and merges
// them, later files taking precedence per variable
func LoadVars(environment string, files ...string) (map[string]string, error) {
	var layers []map[string]string
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read vars file %s: %w", file, err)
		}

		var vf varsFile
		if err := utils.DecodeJSON(data, &vf); err != nil {
			return nil, fmt.Errorf("failed to parse vars file %s: %w", file, err)
		}

		layer := map[string]string{}
		for k, v := range vf.Vars[environment] {
			layer[k] = stringify(v)
		}
		layers = append(layers, layer)
	}
	return utils.MergeArguments(layers...), nil
}

// Substitute replaces every ${name} token in text with its value. Names are
// applied in sorted order.
func Substitute(text string, vars map[string]string) string {
	for _, k := range utils.SortedKeys(vars) {
		text = strings.ReplaceAll(text, "${"+k+"}", vars[k])
	}
	return text
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case nil:
		return "null"
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	}
}
