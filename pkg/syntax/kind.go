package syntax

// Kind is the closed set of node shapes the migration core dispatches on.
// Grammar node types are classified once, when the tree is built; everything
// outside this set is KindOther.
type Kind uint8

// Node kinds.
const (
	KindOther Kind = iota
	KindProgram
	KindImportDecl
	KindImportClause
	KindNamedImports
	KindImportSpecifier
	KindNamespaceImport
	KindString
	KindIdentifier
	KindPropertyIdentifier
	KindShorthandProperty
	KindShorthandPattern
	KindTypeIdentifier
	KindNewExpr
	KindCallExpr
	KindMemberExpr
	KindArguments
	KindObject
	KindPair
	KindSpread
	KindMethod
	KindVarDeclarator
	KindFunctionDecl
	KindClassDecl
	KindFormalParameters
	KindExportStatement
	KindExportSpecifier
	KindComment
	KindError
)

var kindNames = [...]string{
	KindOther:              "other",
	KindProgram:            "program",
	KindImportDecl:         "import_declaration",
	KindImportClause:       "import_clause",
	KindNamedImports:       "named_imports",
	KindImportSpecifier:    "import_specifier",
	KindNamespaceImport:    "namespace_import",
	KindString:             "string",
	KindIdentifier:         "identifier",
	KindPropertyIdentifier: "property_identifier",
	KindShorthandProperty:  "shorthand_property",
	KindShorthandPattern:   "shorthand_pattern",
	KindTypeIdentifier:     "type_identifier",
	KindNewExpr:            "new_expression",
	KindCallExpr:           "call_expression",
	KindMemberExpr:         "member_expression",
	KindArguments:          "arguments",
	KindObject:             "object",
	KindPair:               "pair",
	KindSpread:             "spread",
	KindMethod:             "method",
	KindVarDeclarator:      "variable_declarator",
	KindFunctionDecl:       "function_declaration",
	KindClassDecl:          "class_declaration",
	KindFormalParameters:   "formal_parameters",
	KindExportStatement:    "export_statement",
	KindExportSpecifier:    "export_specifier",
	KindComment:            "comment",
	KindError:              "error",
}

// grammarKinds maps tree-sitter node types of the JavaScript family grammars to kinds.
var grammarKinds = map[string]Kind{
	"program":                               KindProgram,
	"import_statement":                      KindImportDecl,
	"import_clause":                         KindImportClause,
	"named_imports":                         KindNamedImports,
	"import_specifier":                      KindImportSpecifier,
	"namespace_import":                      KindNamespaceImport,
	"string":                                KindString,
	"identifier":                            KindIdentifier,
	"property_identifier":                   KindPropertyIdentifier,
	"shorthand_property_identifier":         KindShorthandProperty,
	"shorthand_property_identifier_pattern": KindShorthandPattern,
	"type_identifier":                       KindTypeIdentifier,
	"new_expression":                        KindNewExpr,
	"call_expression":                       KindCallExpr,
	"member_expression":                     KindMemberExpr,
	"arguments":                             KindArguments,
	"object":                                KindObject,
	"pair":                                  KindPair,
	"spread_element":                        KindSpread,
	"method_definition":                     KindMethod,
	"variable_declarator":                   KindVarDeclarator,
	"function_declaration":                  KindFunctionDecl,
	"generator_function_declaration":        KindFunctionDecl,
	"class_declaration":                     KindClassDecl,
	"formal_parameters":                     KindFormalParameters,
	"export_statement":                      KindExportStatement,
	"export_specifier":                      KindExportSpecifier,
	"comment":                               KindComment,
	"ERROR":                                 KindError,
}

// classify maps a grammar node type to its Kind.
func classify(grammarType string) Kind {
	kind, ok := grammarKinds[grammarType]
	if !ok {
		return KindOther
	}

	return kind
}

// String implements fmt.Stringer.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "unknown"
}

// IsReference reports whether a node of this kind can refer to a binding by name.
func (k Kind) IsReference() bool {
	switch k {
	case KindIdentifier, KindShorthandProperty, KindTypeIdentifier:
		return true
	default:
		return false
	}
}
