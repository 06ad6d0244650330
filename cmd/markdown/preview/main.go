package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/goliatone/go-blogfront/cmd/markdown/internal/bootstrap"
	"github.com/goliatone/go-blogfront/pkg/interfaces"
)

var moduleBuilder = bootstrap.BuildModule

func main() {
	if err := runPreview(os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("%v", err)
	}
}

func runPreview(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("preview", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var (
		contentDir = fs.String("content-dir", "content", "Path to the markdown content root")
		pattern    = fs.String("pattern", "*.md", "Glob pattern applied when discovering markdown files")
		filePath   = fs.String("file", "", "Markdown file to preview (relative to the content root)")
		renderHTML = fs.Bool("render-html", true, "Render markdown body into HTML as part of the preview")
		embedHosts = fs.String("embed-hosts", "", "Comma separated list of hosts allowed in iframe directives")
		safeMode   = fs.Bool("safe-mode", false, "Drop raw HTML from the rendered output")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *filePath == "" {
		return errors.New("--file is required")
	}

	module, err := moduleBuilder(bootstrap.Options{
		ContentDir: *contentDir,
		Pattern:    *pattern,
		Recursive:  true,
		EmbedHosts: bootstrap.SplitList(*embedHosts),
		SafeMode:   *safeMode,
	})
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	if module == nil || module.Service == nil {
		return errors.New("markdown service not configured; ensure Features.Markdown is enabled")
	}

	doc, err := module.Service.Load(context.Background(), *filePath)
	if err != nil {
		return fmt.Errorf("load markdown document: %w", err)
	}
	printDocument(out, doc, *renderHTML)
	return nil
}

func printDocument(out io.Writer, doc *interfaces.Document, renderHTML bool) {
	fmt.Fprintf(out, "Path: %s\n", doc.FilePath)
	if title := doc.FrontMatter.Title; title != "" {
		fmt.Fprintf(out, "Title: %s\n", title)
	}
	fmt.Fprintln(out)

	if doc.FrontMatter.Raw != nil {
		frontmatter, err := json.MarshalIndent(doc.FrontMatter.Raw, "", "  ")
		if err == nil {
			fmt.Fprintf(out, "Frontmatter:\n%s\n\n", frontmatter)
		}
	}

	if len(doc.Headings) > 0 {
		fmt.Fprintln(out, "Outline:")
		for _, heading := range doc.Headings {
			fmt.Fprintf(out, "%*s- %s (#%s)\n", (heading.Level-1)*2, "", heading.Text, heading.ID)
		}
		fmt.Fprintln(out)
	}

	if renderHTML {
		fmt.Fprintf(out, "Rendered HTML:\n%s\n", string(doc.BodyHTML))
	} else {
		fmt.Fprintf(out, "Markdown Body:\n%s\n", string(doc.Body))
	}
}
