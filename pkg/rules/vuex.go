package rules

import (
	"slices"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

// Vuex names.
const (
	vuexSource        = "vuex"
	vuexLoggerSource  = "vuex/dist/logger"
	createStoreName   = "createStore"
	createLoggerName  = "createLogger"
	storeName         = "Store"
	vuexPackageBefore = "< 4.0.0"
)

// VuexV4 rewrites new Vuex.Store(options) and new Store(options) into
// createStore(options).
func VuexV4() *transform.Plugin {
	return transform.MustWrap("vuex-v4", transformStore,
		transform.WithDescription("new Vuex.Store() to createStore()"),
		transform.WithParser(syntax.JavaScript),
		transform.WithPackage(vuexSource, vuexPackageBefore),
	)
}

// VuexCreateLogger replaces the default import of vuex/dist/logger with the
// named createLogger export of vuex.
func VuexCreateLogger() *transform.Plugin {
	return transform.MustWrap("vuex-create-logger", transformLogger,
		transform.WithDescription("import from 'vuex/dist/logger' to { createLogger } from 'vuex'"),
		transform.WithParser(syntax.JavaScript),
		transform.WithPackage(vuexSource, vuexPackageBefore),
	)
}

// storeLocals holds the names new stores can be built through.
type storeLocals struct {
	store      string
	namespaces []string
}

func (s storeLocals) isStore(n *syntax.Node) bool {
	ctor := n.Field("constructor")
	if ctor == nil {
		return false
	}

	switch ctor.Kind {
	case syntax.KindIdentifier:
		return s.store != "" && ctor.Text() == s.store
	case syntax.KindMemberExpr:
		object := ctor.Field("object")

		return object != nil && object.Kind == syntax.KindIdentifier &&
			slices.Contains(s.namespaces, object.Text()) && ctor.Field("property").Text() == storeName
	default:
		return false
	}
}

func (s storeLocals) sites(tree *syntax.Tree) []*syntax.Node {
	return tree.Find(syntax.KindNewExpr, s.isStore)
}

func transformStore(c *transform.Context, _ transform.Options) error {
	bindings, err := transform.ResolveImport(c.Tree, vuexSource)
	if err != nil {
		return err
	}

	var locals storeLocals

	for _, b := range bindings {
		switch {
		case b.TypeOnly:
		case b.Kind == transform.BindingDefault, b.Kind == transform.BindingNamespace,
			b.Kind == transform.BindingNamed && b.Imported == "default":
			locals.namespaces = append(locals.namespaces, b.Local)
		case b.Kind == transform.BindingNamed && b.Imported == storeName:
			locals.store = b.Local
		default:
		}
	}

	if len(locals.sites(c.Tree)) == 0 {
		return nil
	}

	createStore, err := transform.EnsureImport(c.Tree, transform.Named(vuexSource, createStoreName))
	if err != nil {
		return err
	}

	err = c.Tree.Edit(func(ed *syntax.Editor) error {
		for _, site := range locals.sites(c.Tree) {
			args := "()"
			if list := site.Field("arguments"); list != nil {
				args = list.Text()
			}

			ed.Replace(site, createStore+args)
		}

		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range locals.namespaces {
		_, err = transform.PruneIfUnused(c.Tree, name)
		if err != nil {
			return err
		}
	}

	if locals.store != "" {
		_, err = transform.PruneIfUnused(c.Tree, locals.store)
	}

	return err
}

func transformLogger(c *transform.Context, _ transform.Options) error {
	var (
		decl  *syntax.Node
		local string
	)

	for _, candidate := range transform.ImportDecls(c.Tree, vuexLoggerSource) {
		bindings := transform.DeclBindings(candidate)
		if len(bindings) == 1 && bindings[0].Kind == transform.BindingDefault && !bindings[0].TypeOnly {
			decl, local = candidate, bindings[0].Local

			break
		}
	}

	if decl == nil {
		return nil
	}

	err := c.Tree.Edit(func(ed *syntax.Editor) error {
		ed.DeleteStatement(decl)

		return nil
	})
	if err != nil {
		return err
	}

	name, err := transform.EnsureImport(c.Tree, transform.Named(vuexSource, createLoggerName))
	if err != nil {
		return err
	}

	renamed, err := transform.RenameReferences(c.Tree, local, name)
	if err != nil {
		return err
	}

	c.Logger.DebugContext(c.Context(), "logger import replaced", "from", local, "to", name, "references", renamed)

	return nil
}
