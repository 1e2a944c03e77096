package typescript

import (
	"embed"
	"fmt"
	"io/fs"
	"path"

	"goa.design/goa/v3/codegen"
)

type (
	// templates reads section templates from a filesystem.
	templates struct {
		FS fs.FS
	}
)

//go:embed templates/*.ts.tpl
var templateFS embed.FS

// tsTemplates is the single template reader used by the package.
var tsTemplates = &templates{FS: templateFS}

// Read returns the template with the given name.
func (tr *templates) Read(name string) string {
	content, err := fs.ReadFile(tr.FS, path.Join("templates", name+".ts.tpl"))
	if err != nil {
		panic(fmt.Sprintf("failed to load template %s: %v", name, err))
	}
	return string(content)
}

// section builds the file section rendering the named template with data.
func (tr *templates) section(name string, data any) *codegen.SectionTemplate {
	return &codegen.SectionTemplate{
		Name:    name,
		Source:  tr.Read(name),
		Data:    data,
		FuncMap: funcs,
	}
}
