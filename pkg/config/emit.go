package config

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/ini.v1"
)

// Emit renders a resolved configuration in the [section] / key = value
// grammar, sections and keys in order, with no substitution markers.
func Emit(cfg *ResolvedConfig) ([]byte, error) {
	file := ini.Empty()
	for _, sec := range cfg.Sections {
		isec, err := file.NewSection(sec.Header())
		if err != nil {
			return nil, fmt.Errorf("failed to emit section [%s]: %w", sec.Header(), err)
		}
		for _, kv := range sec.Keys() {
			if _, err := isec.NewKey(kv.Key, kv.Value); err != nil {
				return nil, fmt.Errorf("failed to emit key %s in [%s]: %w", kv.Key, sec.Header(), err)
			}
		}
	}

	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write configuration: %w", err)
	}
	return buf.Bytes(), nil
}

// Reparse reads emitted configuration text back into the section/key
// model, for round-trip checks and for validating configurations that are
// already fully resolved.
func Reparse(source string, data []byte) (*ResolvedConfig, error) {
	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration %s: %w", source, err)
	}

	cfg := &ResolvedConfig{Source: source}
	for _, isec := range file.Sections() {
		if isec.Name() == ini.DefaultSection {
			// ini surfaces a synthetic default section; the grammar has no
			// keys outside named sections.
			continue
		}
		kind, name := isec.Name(), ""
		if i := strings.IndexAny(kind, " \t"); i >= 0 {
			kind, name = kind[:i], strings.TrimSpace(kind[i:])
		}
		sec := NewSection(kind, name)
		for _, key := range isec.Keys() {
			if err := sec.Append(key.Name(), key.Value()); err != nil {
				return nil, err
			}
		}
		cfg.Sections = append(cfg.Sections, sec)
	}
	return cfg, nil
}
