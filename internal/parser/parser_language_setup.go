package parser

import (
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// UnitTable classifies the node kinds of one grammar for block extraction
type UnitTable struct {
	units     map[string]bool // functions, methods, types, classes
	topLevel  map[string]bool // statement-like kinds that count only at file top level
	wrappers  map[string]bool // nodes a unit is widened to when it is their direct child
	needsBody map[string]bool // unit kinds that only count when they carry a body field
	leading   map[string]bool // comments and attributes kept with the following unit
}

func newUnitTable(units, topLevel, wrappers, needsBody, leading []string) *UnitTable {
	set := func(kinds []string) map[string]bool {
		m := make(map[string]bool, len(kinds))
		for _, k := range kinds {
			m[k] = true
		}
		return m
	}
	return &UnitTable{
		units:     set(units),
		topLevel:  set(topLevel),
		wrappers:  set(wrappers),
		needsBody: set(needsBody),
		leading:   set(leading),
	}
}

var emptyUnits = newUnitTable(nil, nil, nil, nil, nil)

// IsUnit reports whether n is a code unit a block can span
func (u *UnitTable) IsUnit(n *tree_sitter.Node) bool {
	if n == nil {
		return false
	}
	kind := n.Kind()
	if u.units[kind] {
		return !u.needsBody[kind] || n.ChildByFieldName("body") != nil
	}
	if u.topLevel[kind] {
		return u.isTopLevel(n)
	}
	return false
}

// isTopLevel reports whether n is a direct child of the root, looking through wrappers
func (u *UnitTable) isTopLevel(n *tree_sitter.Node) bool {
	p := n.Parent()
	for p != nil && u.wrappers[p.Kind()] {
		p = p.Parent()
	}
	return p == nil || p.Parent() == nil
}

// IsWrapper reports whether kind widens the unit it directly contains
func (u *UnitTable) IsWrapper(kind string) bool {
	return u.wrappers[kind]
}

// IsLeading reports whether kind is a comment or attribute that belongs to the next unit
func (u *UnitTable) IsLeading(kind string) bool {
	return u.leading[kind]
}

var commentKinds = []string{"comment"}

var jsUnits = []string{
	"function_declaration", "generator_function_declaration",
	"method_definition", "class_declaration",
}

var jsTopLevel = []string{"lexical_declaration", "variable_declaration", "expression_statement"}

var builtinDefs = []*languageDef{
	{
		kind:       LanguageGo,
		name:       "go",
		extensions: []string{".go"},
		language:   tree_sitter_go.Language,
		units: newUnitTable(
			[]string{"function_declaration", "method_declaration", "type_declaration"},
			[]string{"const_declaration", "var_declaration"},
			nil, nil, commentKinds,
		),
	},
	{
		kind:       LanguagePython,
		name:       "python",
		extensions: []string{".py", ".pyi", ".pyw"},
		language:   tree_sitter_python.Language,
		units: newUnitTable(
			[]string{"function_definition", "class_definition"},
			[]string{"expression_statement", "if_statement"},
			[]string{"decorated_definition"}, nil, commentKinds,
		),
	},
	{
		kind:       LanguageJavaScript,
		name:       "javascript",
		extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		language:   tree_sitter_javascript.Language,
		units:      newUnitTable(jsUnits, jsTopLevel, []string{"export_statement"}, nil, commentKinds),
	},
	{
		kind:       LanguageTypeScript,
		name:       "typescript",
		extensions: []string{".ts", ".mts", ".cts"},
		language:   tree_sitter_typescript.LanguageTypescript,
		units:      typeScriptUnits,
	},
	{
		kind:       LanguageTSX,
		name:       "tsx",
		extensions: []string{".tsx"},
		language:   tree_sitter_typescript.LanguageTSX,
		units:      typeScriptUnits,
	},
	{
		kind:       LanguageRust,
		name:       "rust",
		extensions: []string{".rs"},
		language:   tree_sitter_rust.Language,
		units: newUnitTable(
			[]string{
				"function_item", "struct_item", "enum_item", "union_item", "trait_item",
				"impl_item", "type_item", "macro_definition", "const_item", "static_item",
			},
			nil, nil, nil,
			[]string{"line_comment", "block_comment", "attribute_item"},
		),
	},
	{
		kind:       LanguageJava,
		name:       "java",
		extensions: []string{".java"},
		language:   tree_sitter_java.Language,
		units: newUnitTable(
			[]string{
				"method_declaration", "constructor_declaration", "class_declaration",
				"interface_declaration", "enum_declaration", "record_declaration",
				"annotation_type_declaration", "field_declaration",
			},
			nil, nil, nil,
			[]string{"line_comment", "block_comment"},
		),
	},
	{
		// C files are parsed with the C++ grammar
		kind:       LanguageCpp,
		name:       "cpp",
		extensions: []string{".cpp", ".cc", ".cxx", ".c++", ".hpp", ".hh", ".hxx", ".c", ".h"},
		language:   tree_sitter_cpp.Language,
		units: newUnitTable(
			[]string{"function_definition", "class_specifier", "struct_specifier", "union_specifier", "enum_specifier"},
			[]string{"declaration", "type_definition", "preproc_def", "preproc_function_def"},
			[]string{"template_declaration"},
			[]string{"class_specifier", "struct_specifier", "union_specifier", "enum_specifier"},
			commentKinds,
		),
	},
	{
		kind:       LanguageCSharp,
		name:       "csharp",
		extensions: []string{".cs"},
		language:   tree_sitter_csharp.Language,
		units: newUnitTable(
			[]string{
				"method_declaration", "constructor_declaration", "destructor_declaration",
				"class_declaration", "interface_declaration", "struct_declaration",
				"record_declaration", "enum_declaration", "property_declaration",
				"delegate_declaration", "operator_declaration",
			},
			[]string{"global_statement"},
			nil, nil, commentKinds,
		),
	},
	{
		kind:       LanguagePHP,
		name:       "php",
		extensions: []string{".php", ".phtml"},
		language:   tree_sitter_php.LanguagePHP,
		units: newUnitTable(
			[]string{
				"function_definition", "method_declaration", "class_declaration",
				"interface_declaration", "trait_declaration", "enum_declaration",
			},
			[]string{"expression_statement"},
			nil, nil, commentKinds,
		),
	},
	{
		kind:       LanguageZig,
		name:       "zig",
		extensions: []string{".zig"},
		language:   tree_sitter_zig.Language,
		units: newUnitTable(
			[]string{"function_declaration", "test_declaration"},
			[]string{"variable_declaration"},
			nil, nil, commentKinds,
		),
	},
}

var typeScriptUnits = newUnitTable(
	append(append([]string(nil), jsUnits...),
		"interface_declaration", "type_alias_declaration", "enum_declaration",
		"abstract_class_declaration", "function_signature",
	),
	jsTopLevel,
	[]string{"export_statement"},
	nil, commentKinds,
)
