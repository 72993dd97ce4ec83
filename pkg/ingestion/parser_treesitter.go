// Copyright 2025 KrakLabs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package ingestion

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/kraklabs/cartograph/pkg/graph"
)

// defaultMaxCodeTextSize is the default ceiling (in bytes) on the CodeText
// stored per extracted entity, above which the text is truncated rather
// than kept in full: large generated files produce functions whose bodies
// would otherwise dominate batch payload size for no justification value.
const defaultMaxCodeTextSize = 32 * 1024

// FileEntity is one source file discovered during a repo walk.
type FileEntity struct {
	ID       string
	Path     string
	Hash     string // content hash, used for change detection between runs
	Language string
	Size     int64

	Quarantined      bool
	QuarantineReason graph.QuarantineReason
}

// FunctionEntity is one extracted function, method, or function-shaped
// construct (a protobuf RPC, for example, is modeled as a FunctionEntity).
type FunctionEntity struct {
	ID        string
	Name      string
	Signature string
	FilePath  string
	CodeText  string
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
	Exported  bool
	Doc       string
	Parent    string // receiver/enclosing type name, empty for free functions
}

// TypeEntity is one extracted type, struct, class, interface, or enum.
type TypeEntity struct {
	ID        string
	Name      string
	Kind      string // "struct", "interface", "class", "type_alias", "enum", ...
	FilePath  string
	CodeText  string
	StartLine int
	EndLine   int
	StartCol  int
	EndCol    int
	Exported  bool
	Doc       string
}

// ImportEntity is one import statement.
type ImportEntity struct {
	ID         string
	FilePath   string
	ImportPath string
	Alias      string
	StartLine  int
}

// CallsEdge is a resolved function-to-function call relationship.
type CallsEdge struct {
	CallerID string
	CalleeID string
}

// UnresolvedCall is a call whose callee could not be resolved within the
// file it was discovered in; CallResolver resolves these once every file in
// the repo has been parsed and a global function index exists.
type UnresolvedCall struct {
	CallerID   string
	CalleeName string
	FilePath   string
	Line       int
}

// DefinesEdge is a file-to-function "defines" relationship.
type DefinesEdge struct {
	FileID     string
	FunctionID string
}

// DefinesTypeEdge is a file-to-type "defines" relationship.
type DefinesTypeEdge struct {
	FileID string
	TypeID string
}

// ParseResult is everything extracted from one source file.
type ParseResult struct {
	File            FileEntity
	Functions       []FunctionEntity
	Types           []TypeEntity
	Defines         []DefinesEdge
	DefinesTypes    []DefinesTypeEdge
	Calls           []CallsEdge
	Imports         []ImportEntity
	UnresolvedCalls []UnresolvedCall
	PackageName     string
}

// codeTextLimiter bounds the size of CodeText this module keeps per entity
// and counts how many times that bound was hit, shared by both parser
// implementations so SetMaxCodeTextSize/GetTruncatedCount behave the same
// regardless of which one is in use.
type codeTextLimiter struct {
	mu              sync.Mutex
	maxCodeTextSize int64
	truncatedCount  int
}

func (l *codeTextLimiter) SetMaxCodeTextSize(size int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxCodeTextSize = size
}

func (l *codeTextLimiter) GetTruncatedCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.truncatedCount
}

func (l *codeTextLimiter) ResetTruncatedCount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.truncatedCount = 0
}

func (l *codeTextLimiter) truncateCodeText(text string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	max := l.maxCodeTextSize
	if max <= 0 {
		max = defaultMaxCodeTextSize
	}
	if int64(len(text)) <= max {
		return text
	}
	l.truncatedCount++
	return text[:max]
}

// TreeSitterParser parses source files into Tree-sitter ASTs for accurate,
// grammar-aware entity and call extraction. Go and TypeScript use real
// grammars; Protobuf falls back to the same regex pass Parser uses, since no
// Protobuf grammar is bundled.
type TreeSitterParser struct {
	codeTextLimiter
	logger   *slog.Logger
	goParser *sitter.Parser
	tsParser *sitter.Parser
}

// NewTreeSitterParser constructs a parser with the Go and TypeScript
// grammars loaded. A nil logger defaults to slog.Default().
func NewTreeSitterParser(logger *slog.Logger) *TreeSitterParser {
	if logger == nil {
		logger = slog.Default()
	}

	goParser := sitter.NewParser()
	goParser.SetLanguage(golang.GetLanguage())

	tsParser := sitter.NewParser()
	tsParser.SetLanguage(typescript.GetLanguage())

	return &TreeSitterParser{
		codeTextLimiter: codeTextLimiter{maxCodeTextSize: defaultMaxCodeTextSize},
		logger:          logger,
		goParser:        goParser,
		tsParser:        tsParser,
	}
}

// ParseFile dispatches to the grammar-specific extraction routine for
// fileInfo.Language, then assembles a ParseResult with file-scoped IDs and
// defines edges generated from whatever functions/types came back.
func (p *TreeSitterParser) ParseFile(fileInfo FileInfo) (*ParseResult, error) {
	fileID := GenerateFileID(fileInfo.Path)
	file := FileEntity{ID: fileID, Path: fileInfo.Path, Language: fileInfo.Language, Size: fileInfo.Size}

	if fileInfo.Quarantined {
		file.Quarantined = true
		file.QuarantineReason = fileInfo.QuarantineReason
		return &ParseResult{File: file}, nil
	}

	content, err := readFileContent(fileInfo)
	if err != nil {
		return &ParseResult{File: file}, err
	}

	var (
		functions       []FunctionEntity
		types           []TypeEntity
		calls           []CallsEdge
		imports         []ImportEntity
		unresolvedCalls []UnresolvedCall
		packageName     string
	)

	switch fileInfo.Language {
	case "go":
		gr, err := p.parseGoAST(content, fileInfo.Path)
		if err != nil {
			return &ParseResult{File: file}, err
		}
		functions, types, calls, imports, unresolvedCalls, packageName =
			gr.Functions, gr.Types, gr.Calls, gr.Imports, gr.UnresolvedCalls, gr.PackageName
	case "typescript", "javascript", "tsx", "jsx":
		fns, tys, cs, err := p.parseTypeScriptAST(content, fileInfo.Path)
		if err != nil {
			return &ParseResult{File: file}, err
		}
		functions, types, calls = fns, tys, cs
	case "protobuf":
		fns, cs := parseProtobufSimplified(content, fileInfo.Path, p)
		functions, calls = fns, cs
	default:
		// Unsupported language: return the bare file entity, no extraction.
		return &ParseResult{File: file}, nil
	}

	defines := make([]DefinesEdge, 0, len(functions))
	for _, fn := range functions {
		defines = append(defines, DefinesEdge{FileID: fileID, FunctionID: fn.ID})
	}
	definesTypes := make([]DefinesTypeEdge, 0, len(types))
	for _, ty := range types {
		definesTypes = append(definesTypes, DefinesTypeEdge{FileID: fileID, TypeID: ty.ID})
	}

	return &ParseResult{
		File:            file,
		Functions:       functions,
		Types:           types,
		Defines:         defines,
		DefinesTypes:    definesTypes,
		Calls:           calls,
		Imports:         imports,
		UnresolvedCalls: unresolvedCalls,
		PackageName:     packageName,
	}, nil
}

// Parser is the CGO-free fallback: regex/string-matching extraction, used
// when Tree-sitter grammars are unavailable or ParserModeSimplified is
// forced explicitly.
type Parser struct {
	codeTextLimiter
	logger *slog.Logger
}

// NewParser constructs a simplified, non-AST parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{codeTextLimiter: codeTextLimiter{maxCodeTextSize: defaultMaxCodeTextSize}, logger: logger}
}

// ParseFile runs the simplified extraction pass. Only Go and Protobuf have
// simplified extractors; every other language returns the bare file entity.
func (p *Parser) ParseFile(fileInfo FileInfo) (*ParseResult, error) {
	fileID := GenerateFileID(fileInfo.Path)
	file := FileEntity{ID: fileID, Path: fileInfo.Path, Language: fileInfo.Language, Size: fileInfo.Size}

	if fileInfo.Quarantined {
		file.Quarantined = true
		file.QuarantineReason = fileInfo.QuarantineReason
		return &ParseResult{File: file}, nil
	}

	content, err := readFileContent(fileInfo)
	if err != nil {
		return &ParseResult{File: file}, err
	}

	var (
		functions []FunctionEntity
		calls     []CallsEdge
	)

	switch fileInfo.Language {
	case "go":
		functions, calls = p.parseGoFile(string(content), fileInfo.Path)
	case "protobuf":
		functions, calls = parseProtobufContent(string(content), fileInfo.Path, p.truncateCodeText)
	default:
		return &ParseResult{File: file}, nil
	}

	defines := make([]DefinesEdge, 0, len(functions))
	for _, fn := range functions {
		defines = append(defines, DefinesEdge{FileID: fileID, FunctionID: fn.ID})
	}

	return &ParseResult{
		File:      file,
		Functions: functions,
		Defines:   defines,
		Calls:     calls,
	}, nil
}

func readFileContent(fileInfo FileInfo) ([]byte, error) {
	return os.ReadFile(fileInfo.FullPath)
}

// PackageInfo indexes one Go package directory for cross-file/cross-package
// call resolution.
type PackageInfo struct {
	PackagePath string
	PackageName string
	Files       []string
}

// ToEntities converts a single file's ParseResult into the generalized
// graph.Entity model the storage/graphanalysis/justify layers consume.
func (r *ParseResult) ToEntities(orgID, repoID, indexVersion string) []graph.Entity {
	return BuildGraphEntities(orgID, repoID, indexVersion, []FileEntity{r.File}, r.Functions, r.Types)
}

// BuildGraphEntities stamps a batch of files/functions/types extracted
// across an entire repo with repoID/orgID/indexVersion/language and
// converts them into the generalized graph.Entity model, so the pipeline
// can aggregate many files' worth of ParseResults before one bulk write.
func BuildGraphEntities(orgID, repoID, indexVersion string, files []FileEntity, functions []FunctionEntity, types []TypeEntity) []graph.Entity {
	languageByPath := make(map[string]string, len(files))
	entities := make([]graph.Entity, 0, len(files)+len(functions)+len(types))

	for _, f := range files {
		languageByPath[f.Path] = f.Language
		entity := graph.Entity{
			ID:           f.ID,
			OrgID:        orgID,
			RepoID:       repoID,
			IndexVersion: indexVersion,
			Kind:         graph.KindFile,
			Name:         filepath.Base(f.Path),
			FilePath:     f.Path,
			Language:     f.Language,
		}
		if f.Quarantined {
			entity.Quarantine(f.QuarantineReason)
		}
		entities = append(entities, entity)
	}

	for _, fn := range functions {
		kind := graph.KindFunction
		if fn.Parent != "" {
			kind = graph.KindMethod
		}
		entities = append(entities, graph.Entity{
			ID:           fn.ID,
			OrgID:        orgID,
			RepoID:       repoID,
			IndexVersion: indexVersion,
			Kind:         kind,
			Name:         fn.Name,
			FilePath:     fn.FilePath,
			StartLine:    fn.StartLine,
			EndLine:      fn.EndLine,
			Language:     languageByPath[fn.FilePath],
			Signature:    fn.Signature,
			Exported:     fn.Exported,
			Doc:          fn.Doc,
			Parent:       fn.Parent,
			Body:         fn.CodeText,
		})
	}

	for _, ty := range types {
		entities = append(entities, graph.Entity{
			ID:           ty.ID,
			OrgID:        orgID,
			RepoID:       repoID,
			IndexVersion: indexVersion,
			Kind:         typeKindToEntityKind(ty.Kind),
			Name:         ty.Name,
			FilePath:     ty.FilePath,
			StartLine:    ty.StartLine,
			EndLine:      ty.EndLine,
			Language:     languageByPath[ty.FilePath],
			Exported:     ty.Exported,
			Doc:          ty.Doc,
			Body:         ty.CodeText,
		})
	}

	return entities
}

func typeKindToEntityKind(kind string) graph.Kind {
	switch strings.ToLower(kind) {
	case "interface":
		return graph.KindInterface
	case "class":
		return graph.KindClass
	case "enum":
		return graph.KindEnum
	case "struct":
		return graph.KindStruct
	default:
		return graph.KindType
	}
}

// ToEdges converts a single file's ParseResult Defines/DefinesTypes/Calls
// into the generalized graph.Edge model.
func (r *ParseResult) ToEdges() []graph.Edge {
	return BuildGraphEdges(r.Defines, r.DefinesTypes, r.Calls)
}

// BuildGraphEdges converts a repo-wide batch of Defines/DefinesTypes/Calls
// edges into the generalized graph.Edge model.
func BuildGraphEdges(defines []DefinesEdge, definesTypes []DefinesTypeEdge, calls []CallsEdge) []graph.Edge {
	edges := make([]graph.Edge, 0, len(defines)+len(definesTypes)+len(calls))
	for _, d := range defines {
		edges = append(edges, graph.Edge{
			Key:  graph.EdgeHash(d.FileID, d.FunctionID, graph.EdgeContains),
			From: d.FileID,
			To:   d.FunctionID,
			Kind: graph.EdgeContains,
		})
	}
	for _, d := range definesTypes {
		edges = append(edges, graph.Edge{
			Key:  graph.EdgeHash(d.FileID, d.TypeID, graph.EdgeContains),
			From: d.FileID,
			To:   d.TypeID,
			Kind: graph.EdgeContains,
		})
	}
	for _, c := range calls {
		edges = append(edges, graph.Edge{
			Key:  graph.EdgeHash(c.CallerID, c.CalleeID, graph.EdgeCalls),
			From: c.CallerID,
			To:   c.CalleeID,
			Kind: graph.EdgeCalls,
		})
	}
	return edges
}
