// Package project initializes a ginjarator project: it renders ninja
// templates and generates build.ninja plus the internal state that drives
// incremental scans and renders.
package project

import (
	"fmt"
	"strings"

	"github.com/conneroisu/ginjarator/internal/fsys"
	"github.com/conneroisu/ginjarator/internal/ninja"
	"github.com/conneroisu/ginjarator/internal/paths"
	"github.com/conneroisu/ginjarator/internal/template"
)

const ninjaRequiredVersion = "1.10"

const gitIgnoreContents = `# Automatically generated by ginjarator.
*
`

const mainRules = `ninja_required_version = ` + ninjaRequiredVersion + `

rule init
    command = ginjarator init
    description = INIT
    generator = true
    restat = true

rule scan
    command = ginjarator scan $template
    description = SCAN $template
    restat = true

rule render
    command = ginjarator render $template
    description = RENDER $template
    restat = true

rule touch
    command = touch $out
`

// Edges for one template: scanning produces the state file (plus its depfile
// and dyndep file), rendering consumes them and produces the render stamp.
// The render edge is gated on the scan-done stamp so that every deferred
// output has its producer known before anything renders.
func templateEdges(templatePath paths.FS) (string, error) {
	statePath := paths.TemplateState(templatePath)
	depfilePath := paths.TemplateDepfile(templatePath)
	dyndepPath := paths.TemplateDyndep(templatePath)
	stampPath := paths.TemplateRenderStamp(templatePath)

	escaped := map[string]string{}
	for name, value := range map[string]any{
		"template": templatePath,
		"state":    statePath,
		"depfile":  depfilePath,
		"dyndep":   dyndepPath,
		"stamp":    stampPath,
	} {
		e, err := ninja.Escape(value)
		if err != nil {
			return "", err
		}
		escaped[name] = e
	}
	templateArg, err := ninja.EscapeShell(templatePath)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	fmt.Fprintf(&builder,
		"build %s | %s %s: scan %s || %s\n",
		escaped["state"], escaped["depfile"], escaped["dyndep"],
		escaped["template"], paths.NinjaEntrypoint,
	)
	fmt.Fprintf(&builder, "    depfile = %s\n", escaped["depfile"])
	fmt.Fprintf(&builder, "    template = %s\n", templateArg)
	builder.WriteString("\n")
	fmt.Fprintf(&builder,
		"build %s: render %s | %s || %s %s\n",
		escaped["stamp"], escaped["template"], escaped["state"],
		escaped["dyndep"], paths.ScanDoneStamp,
	)
	fmt.Fprintf(&builder, "    dyndep = %s\n", escaped["dyndep"])
	fmt.Fprintf(&builder, "    template = %s\n", templateArg)
	return builder.String(), nil
}

func mainNinja(fs *fsys.FS, templates []paths.FS) (string, error) {
	parts := []string{mainRules}
	scanDoneDependencies := make([]paths.FS, 0, len(templates))
	for _, templatePath := range templates {
		edges, err := templateEdges(templatePath)
		if err != nil {
			return "", err
		}
		parts = append(parts, edges)
		scanDoneDependencies = append(scanDoneDependencies, paths.TemplateState(templatePath))
	}

	// The entrypoint depfile has to be written before the entrypoint edge is
	// generated, so that the depfile itself shows up in the outputs below.
	depfile, err := ninja.Depfile(paths.NinjaEntrypoint, fs.Dependencies())
	if err != nil {
		return "", err
	}
	if _, err := fs.WriteTextIfChanged(paths.EntrypointDepfile, depfile); err != nil {
		return "", err
	}

	outputs, err := ninja.Escape(fs.Outputs())
	if err != nil {
		return "", err
	}
	escapedDepfile, err := ninja.Escape(paths.EntrypointDepfile)
	if err != nil {
		return "", err
	}
	escapedStamp, err := ninja.Escape(paths.ScanDoneStamp)
	if err != nil {
		return "", err
	}
	escapedStampDeps, err := ninja.Escape(scanDoneDependencies)
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	// build.ninja has to be a relative path for ninja to reload it properly
	// when it changes, so it is hardcoded rather than added through the
	// tracked outputs.
	fmt.Fprintf(&builder, "build %s %s: init\n", paths.NinjaEntrypoint, outputs)
	fmt.Fprintf(&builder, "    depfile = %s\n", escapedDepfile)
	builder.WriteString("\n")
	fmt.Fprintf(&builder, "build %s: touch | %s\n", escapedStamp, escapedStampDeps)
	builder.WriteString("    description = STAMP done scanning\n")
	parts = append(parts, builder.String())

	return strings.Join(parts, "\n"), nil
}

// Init initializes a ginjarator project and generates its build files.
func Init(root string) error {
	fs, err := fsys.New(root)
	if err != nil {
		return err
	}
	cfg, err := fs.ReadConfig()
	if err != nil {
		return err
	}

	if _, err := fs.WriteTextIfChanged(paths.GitIgnore, gitIgnoreContents); err != nil {
		return err
	}

	minimalJSON, err := cfg.MarshalMinimal()
	if err != nil {
		return err
	}
	if _, err := fs.WriteTextIfChanged(paths.MinimalConfig, string(minimalJSON)); err != nil {
		return err
	}

	var subninjas []paths.FS
	anyChanged := false
	for _, templatePath := range cfg.NinjaTemplates {
		contents, err := template.Ninja(templatePath, fs)
		if err != nil {
			return err
		}
		outputPath := paths.NinjaTemplateOutput(templatePath)
		changed, err := fs.WriteTextIfChanged(outputPath, contents)
		if err != nil {
			return err
		}
		anyChanged = anyChanged || changed
		subninjas = append(subninjas, outputPath)
	}

	// main.ninja has to be the last subninja, so that it can include the
	// dependencies and outputs added by previous subninjas.
	if err := fs.AddOutput(paths.NinjaMain, false); err != nil {
		return err
	}
	subninjas = append(subninjas, paths.NinjaMain)
	mainContents, err := mainNinja(fs, cfg.Templates)
	if err != nil {
		return err
	}
	changed, err := fs.WriteTextIfChanged(paths.NinjaMain, mainContents)
	if err != nil {
		return err
	}
	anyChanged = anyChanged || changed

	var entrypoint strings.Builder
	fmt.Fprintf(&entrypoint, "ninja_required_version = %s\n", ninjaRequiredVersion)
	for _, subninja := range subninjas {
		escaped, err := ninja.Escape(subninja)
		if err != nil {
			return err
		}
		fmt.Fprintf(&entrypoint, "subninja %s\n", escaped)
	}
	if anyChanged {
		// Force an mtime bump so ninja reloads the subninjas.
		return fs.WriteTextNow(paths.NinjaEntrypoint, entrypoint.String())
	}
	_, err = fs.WriteTextIfChanged(paths.NinjaEntrypoint, entrypoint.String())
	return err
}

// MinimalConfig regenerates only the minimal config cache.
func MinimalConfig(root string) error {
	fs, err := fsys.New(root)
	if err != nil {
		return err
	}
	cfg, err := fs.ReadConfig()
	if err != nil {
		return err
	}
	minimalJSON, err := cfg.MarshalMinimal()
	if err != nil {
		return err
	}
	_, err = fs.WriteTextIfChanged(paths.MinimalConfig, string(minimalJSON))
	return err
}
