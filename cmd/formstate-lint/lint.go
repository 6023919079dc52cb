package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/goliatone/go-formstate/pkg/definition"
	"github.com/goliatone/go-formstate/pkg/form"
	"github.com/goliatone/go-formstate/pkg/rules"
)

type violation struct {
	file     string
	location string
	message  string
}

func (v violation) String() string {
	return fmt.Sprintf("%s: %s -> %s", v.file, v.location, v.message)
}

// collectFiles expands directories into the definition files they contain.
func collectFiles(paths []string) ([]string, error) {
	var out []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, path)
			continue
		}
		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(p)) {
			case ".json", ".yaml", ".yml":
				out = append(out, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

func lintFiles(ctx context.Context, files []string) ([]violation, error) {
	var (
		violations []violation
		owners     = make(map[string]string)
	)
	for _, file := range files {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		linted, ids := lintDocument(ctx, file, raw)
		violations = append(violations, linted...)
		for _, id := range ids {
			if owner, dup := owners[id]; dup {
				violations = append(violations, violation{
					file:     file,
					location: "form " + id,
					message:  "form id already defined in " + owner,
				})
				continue
			}
			owners[id] = file
		}
	}

	sort.SliceStable(violations, func(i, j int) bool {
		if violations[i].file == violations[j].file {
			if violations[i].location == violations[j].location {
				return violations[i].message < violations[j].message
			}
			return violations[i].location < violations[j].location
		}
		return violations[i].file < violations[j].file
	})
	return violations, nil
}

// lintDocument checks one file and returns its violations plus the form ids
// it defines.
func lintDocument(ctx context.Context, file string, raw []byte) ([]violation, []string) {
	forms, err := definition.Parse(raw, file)
	if err != nil {
		return []violation{{file: file, location: "document", message: err.Error()}}, nil
	}

	var (
		out []violation
		ids []string
	)
	for _, def := range forms {
		ids = append(ids, def.ID)
		out = append(out, lintForm(ctx, file, def)...)
	}
	return out, ids
}

func lintForm(ctx context.Context, file string, def definition.Form) []violation {
	var out []violation
	add := func(location, message string) {
		out = append(out, violation{file: file, location: location, message: message})
	}

	if len(def.Fields) == 0 {
		add("form "+def.ID, "form has no fields")
	}

	for _, field := range def.Fields {
		location := "form " + def.ID + " field " + field.Name
		choice := field.Type == definition.TypeSelect || field.Type == definition.TypeMultiSelect
		switch {
		case choice && len(field.Options) == 0:
			add(location, "choice field has no options")
		case !choice && len(field.Options) > 0:
			add(location, fmt.Sprintf("options are ignored for type %q", field.Type))
		}
		if field.Type == definition.TypeSelect && field.Default != nil {
			if s, ok := field.Default.(string); !ok || !slices.Contains(field.Options, s) {
				add(location, fmt.Sprintf("default %v is not one of the options", field.Default))
			}
		}
	}

	inst, err := definition.Build(def, rules.Default(), form.WithScheduler(form.Immediate))
	if err != nil {
		add("form "+def.ID, err.Error())
		return out
	}
	defer inst.Close()

	// Defaults must satisfy their own rules.
	ctrl := inst.Form.Controller()
	for _, field := range def.Fields {
		if field.Default == nil {
			continue
		}
		failure, err := ctrl.ValidateField(ctx, field.Name)
		if err != nil {
			add("form "+def.ID+" field "+field.Name, err.Error())
			continue
		}
		if failure != nil {
			add("form "+def.ID+" field "+field.Name, fmt.Sprintf("default fails rule %s: %s", failure.Rule, failure.Message))
		}
	}
	return out
}
