package main

import (
	"bufio"
	"debug/elf"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	redirectDirective = "//go:redirect-from"

	// redirectTableSection is reserved by the linker script and receives
	// one (src, dst) address pair per redirect.
	redirectTableSection = ".goredirectstbl"
)

var errNoModule = errors.New("go.mod does not declare a module path")

// redirect describes a runtime function (src) whose calls must land in a
// kernel function (dst).
type redirect struct {
	src string
	dst string

	srcVMA uint64
	dstVMA uint64
}

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[redirects] error: %s\n", err.Error())
	os.Exit(1)
}

// modulePath returns the module path declared in the go.mod file found in
// root.
func modulePath(root string) (string, error) {
	f, err := os.Open(filepath.Join(root, "go.mod"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 2 && fields[0] == "module" {
			return strings.Trim(fields[1], `"`), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", errNoModule
}

// collectGoFiles returns the non-test Go files below dir, relative to root.
func collectGoFiles(root, dir string) ([]string, error) {
	var goFiles []string

	err := filepath.WalkDir(filepath.Join(root, dir), func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		if filepath.Ext(p) == ".go" && !strings.HasSuffix(p, "_test.go") {
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			goFiles = append(goFiles, filepath.ToSlash(rel))
		}
		return nil
	})

	return goFiles, err
}

// findRedirects parses goFiles and returns a redirect for each function
// annotated with a go:redirect-from directive. Targets are named the way
// the linker names them: import path, dot, function name.
func findRedirects(root, modPath string, goFiles []string) ([]*redirect, error) {
	var redirects []*redirect

	for _, goFile := range goFiles {
		fset := token.NewFileSet()
		f, err := parser.ParseFile(fset, filepath.Join(root, goFile), nil, parser.ParseComments)
		if err != nil {
			return nil, err
		}

		for _, decl := range f.Decls {
			fnDecl, ok := decl.(*ast.FuncDecl)
			if !ok || fnDecl.Doc == nil || fnDecl.Recv != nil {
				continue
			}

			dst := path.Join(modPath, path.Dir(goFile)) + "." + fnDecl.Name.Name
			for _, comment := range fnDecl.Doc.List {
				if !strings.HasPrefix(comment.Text, redirectDirective) {
					continue
				}

				fields := strings.Fields(comment.Text)
				if len(fields) != 2 || fields[0] != redirectDirective {
					return nil, fmt.Errorf("%s: malformed go:redirect-from directive for %q", fset.Position(comment.Pos()), dst)
				}

				redirects = append(redirects, &redirect{src: fields[1], dst: dst})
			}
		}
	}

	return redirects, nil
}

// resolveSymbols fills in the addresses of the redirect endpoints from the
// symbol table of the kernel image.
func resolveSymbols(redirects []*redirect, imgFile string) error {
	f, err := elf.Open(imgFile)
	if err != nil {
		return err
	}
	defer f.Close()

	symbols, err := f.Symbols()
	if err != nil {
		return fmt.Errorf("%s: %w", imgFile, err)
	}

	addr := make(map[string]uint64, len(symbols))
	for _, sym := range symbols {
		addr[sym.Name] = sym.Value
	}

	for _, r := range redirects {
		r.srcVMA, r.dstVMA = addr[r.src], addr[r.dst]

		switch {
		case r.srcVMA == 0:
			return fmt.Errorf("%s: could not locate address of %q", imgFile, r.src)
		case r.dstVMA == 0:
			return fmt.Errorf("%s: could not locate address of %q", imgFile, r.dst)
		}
	}

	return nil
}

// writeTable stores the resolved redirects in the redirect table section of
// the kernel image.
func writeTable(redirects []*redirect, imgFile string) error {
	img, err := elf.Open(imgFile)
	if err != nil {
		return err
	}
	section := img.Section(redirectTableSection)
	img.Close()

	if section == nil {
		return fmt.Errorf("%s: missing %s section", imgFile, redirectTableSection)
	}

	if need := uint64(len(redirects)) * 16; need > section.Size {
		return fmt.Errorf("%s: %s section holds %d bytes; %d required", imgFile, redirectTableSection, section.Size, need)
	}

	f, err := os.OpenFile(imgFile, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err = f.Seek(int64(section.Offset), io.SeekStart); err != nil {
		return err
	}

	table := make([]uint64, 0, 2*len(redirects))
	for _, r := range redirects {
		table = append(table, r.srcVMA, r.dstVMA)
	}
	return binary.Write(f, binary.LittleEndian, table)
}

func runTool(root string, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New("missing command")
	}

	cmd := args[0]
	switch cmd {
	case "count":
	case "populate-table":
		if len(args) != 2 {
			return errors.New("populate-table requires the path to the kernel image as an argument")
		}
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}

	modPath, err := modulePath(root)
	if err != nil {
		return fmt.Errorf("this tool must be run from the module root folder: %w", err)
	}

	goFiles, err := collectGoFiles(root, "kernel")
	if err != nil {
		return err
	}

	redirects, err := findRedirects(root, modPath, goFiles)
	if err != nil {
		return err
	}

	if cmd == "count" {
		_, err = fmt.Fprintf(stdout, "%d", len(redirects))
		return err
	}

	if err = resolveSymbols(redirects, args[1]); err != nil {
		return err
	}
	return writeTable(redirects, args[1])
}

func main() {
	flag.Parse()

	if err := runTool(".", flag.Args(), os.Stdout); err != nil {
		exit(err)
	}
}
