// # internal/engine/header/parse.go
package header

import (
	"bytes"
	"cirgen/internal/core/errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
)

type Options struct {
	// StripMacros lists identifiers (export/calling-convention macros such
	// as API_EXPORT) blanked out before parsing.
	StripMacros []string
}

// Parser selects a front end by file extension and produces a Header.
type Parser struct {
	pool      *ParserPool
	extractor *CExtractor
	macros    *regexp.Regexp
}

func NewParser(opts Options) (*Parser, error) {
	p := &Parser{
		pool:      NewParserPool(sitter.NewLanguage(tree_sitter_c.Language())),
		extractor: NewCExtractor(),
	}
	if len(opts.StripMacros) > 0 {
		quoted := make([]string, 0, len(opts.StripMacros))
		for _, name := range opts.StripMacros {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			quoted = append(quoted, regexp.QuoteMeta(name))
		}
		if len(quoted) > 0 {
			re, err := regexp.Compile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
			if err != nil {
				return nil, errors.Wrap(err, errors.CodeValidationError, "invalid strip_macros entry")
			}
			p.macros = re
		}
	}
	return p, nil
}

// IsSupportedPath reports whether ParseFile accepts path.
func IsSupportedPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".h", ".json":
		return true
	}
	return false
}

// ModuleName derives the default module name from a header path.
func ModuleName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (p *Parser) ParseFile(path string, content []byte) (*Header, error) {
	var (
		h   *Header
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".h":
		h, err = p.parseC(path, content)
	case ".json":
		h, err = DecodeJSON(bytes.NewReader(content))
		if err != nil {
			err = errors.Wrap(err, errors.CodeParseError, "decode header json")
		}
	default:
		err = errors.New(errors.CodeNotSupported, fmt.Sprintf("unsupported input extension: %q", ext))
	}
	if err != nil {
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	if h.Name == "" {
		h.Name = ModuleName(path)
	}
	if h.Path == "" {
		h.Path = path
	}
	return h, nil
}

func (p *Parser) parseC(path string, content []byte) (*Header, error) {
	if p.macros != nil {
		content = p.macros.ReplaceAllFunc(content, func(m []byte) []byte {
			return bytes.Repeat([]byte{' '}, len(m))
		})
	}

	sp := p.pool.Get()
	defer p.pool.Put(sp)

	tree := sp.Parse(content, nil)
	if tree == nil {
		return nil, errors.New(errors.CodeParseError, "parse failed")
	}
	defer tree.Close()

	h, err := p.extractor.Extract(tree.RootNode(), content, path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeParseError, "extraction failed")
	}
	return h, nil
}
