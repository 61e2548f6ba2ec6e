package rules

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/codeshift/pkg/syntax"
	"github.com/Sumatoshi-tech/codeshift/pkg/transform"
)

// Vue Router names.
const (
	vueRouterSource    = "vue-router"
	createRouterName   = "createRouter"
	startLocationName  = "START_LOCATION"
	historyKey         = "history"
	defaultRouterMode  = "hash"
	routerModeOption   = "defaultMode"
	routerModeKey      = "mode"
	routerBaseKey      = "base"
	routerFallbackKey  = "fallback"
	routerModeRequired = "mode must be one of 'hash', 'history', or 'abstract'"
)

// historyFactories maps Vue Router 3 modes to the Vue Router 4 history factories.
var historyFactories = map[string]string{
	"hash":     "createWebHashHistory",
	"history":  "createWebHistory",
	"abstract": "createMemoryHistory",
}

// routerSite is a planned rewrite of one new Router(...) expression.
type routerSite struct {
	factory string
	base    string
	index   int
}

// routerOnlyKeys are the Vue Router 3 options folded into the history factory.
var routerOnlyKeys = map[string]bool{
	routerModeKey:     true,
	routerBaseKey:     true,
	routerFallbackKey: true,
}

// VueRouterV4 rewrites new VueRouter({ mode, base, fallback }) into
// createRouter({ history: createXHistory(base) }) and VueRouter.START_LOCATION
// into a named START_LOCATION import.
func VueRouterV4() *transform.Plugin {
	return transform.MustWrap("vue-router-v4", transformRouter,
		transform.WithDescription("new VueRouter() to createRouter() with a history factory"),
		transform.WithParser(syntax.JavaScript),
		transform.WithPackage(vueRouterSource, "< 4.0.0"),
		transform.WithOption(transform.OptionSpec{
			Name:        routerModeOption,
			Description: "mode assumed when new VueRouter() is given no mode",
			Type:        transform.StringOption,
			Default:     defaultRouterMode,
		}),
	)
}

func transformRouter(c *transform.Context, opts transform.Options) error {
	bindings, err := transform.ResolveImport(c.Tree, vueRouterSource)
	if err != nil {
		return err
	}

	local, ok := transform.DefaultLocal(bindings)
	if !ok {
		return nil
	}

	defaultFactory, ok := historyFactories[opts.String(routerModeOption, defaultRouterMode)]
	if !ok {
		return transform.InvalidConfig(nil, opts.String(routerModeOption, ""), routerModeRequired)
	}

	sites, err := planRouterSites(c, local, defaultFactory)
	if err != nil {
		return err
	}

	err = rewriteRouterSites(c.Tree, local, sites)
	if err != nil {
		return err
	}

	err = rewriteStartLocation(c.Tree, local)
	if err != nil {
		return err
	}

	_, err = transform.PruneIfUnused(c.Tree, local)

	return err
}

// routerNews returns the new <local>(...) expressions in document order.
func routerNews(tree *syntax.Tree, local string) []*syntax.Node {
	return tree.Find(syntax.KindNewExpr, func(n *syntax.Node) bool {
		return n.Field("constructor").IsIdentifier(local)
	})
}

// planRouterSites validates every call site before anything is mutated. An
// unsupported site is reported and skipped; an invalid mode fails the file.
func planRouterSites(c *transform.Context, local, defaultFactory string) ([]routerSite, error) {
	var sites []routerSite

	for idx, n := range routerNews(c.Tree, local) {
		if nestedRouterNew(n, local) {
			c.Report(transform.Unsupported(n, "new VueRouter() inside another new VueRouter() config is not transformed"))

			continue
		}

		site, err := planRouterSite(n, defaultFactory)
		if err != nil {
			if errors.Is(err, transform.ErrUnsupportedPattern) {
				c.Report(err)

				continue
			}

			return nil, err
		}

		site.index = idx
		sites = append(sites, site)
	}

	return sites, nil
}

// nestedRouterNew reports whether n sits inside the arguments of another
// new <local>(...) expression.
func nestedRouterNew(n *syntax.Node, local string) bool {
	for outer := n.Ancestor(syntax.KindNewExpr); outer != nil; outer = outer.Ancestor(syntax.KindNewExpr) {
		if outer.Field("constructor").IsIdentifier(local) {
			return true
		}
	}

	return false
}

func planRouterSite(n *syntax.Node, defaultFactory string) (routerSite, error) {
	args := n.Field("arguments").Items()
	if len(args) != 1 || args[0].Kind != syntax.KindObject {
		return routerSite{}, transform.Unsupported(n, "only object literals passed to new VueRouter() can be transformed")
	}

	site := routerSite{factory: defaultFactory}

	for _, prop := range args[0].Items() {
		key, value := propertyParts(prop)

		switch key {
		case routerModeKey:
			mode, isString := value.StringValue()
			if !isString {
				return routerSite{}, transform.Unsupported(prop, "mode must be a string literal")
			}

			factory, known := historyFactories[mode]
			if !known {
				return routerSite{}, transform.InvalidConfig(value, mode, routerModeRequired)
			}

			site.factory = factory
		case routerBaseKey:
			site.base = value.Text()
		default:
		}
	}

	return site, nil
}

// propertyParts returns the static key and the value node of an object
// property. Spreads, methods and computed keys yield an empty key.
func propertyParts(prop *syntax.Node) (string, *syntax.Node) {
	switch prop.Kind {
	case syntax.KindPair:
		key := prop.Field("key")
		if value, ok := key.StringValue(); ok {
			return value, prop.Field("value")
		}

		if key.Kind == syntax.KindPropertyIdentifier {
			return key.Text(), prop.Field("value")
		}
	case syntax.KindShorthandProperty:
		return prop.Text(), prop
	default:
	}

	return "", nil
}

// rewriteRouterSites imports the factories the sites need, then rewrites
// each planned site, re-queried after the import edits.
func rewriteRouterSites(tree *syntax.Tree, local string, sites []routerSite) error {
	if len(sites) == 0 {
		return nil
	}

	factoryLocals := make(map[string]string)

	for _, site := range sites {
		if _, done := factoryLocals[site.factory]; done {
			continue
		}

		name, err := transform.EnsureImport(tree, transform.Named(vueRouterSource, site.factory))
		if err != nil {
			return err
		}

		factoryLocals[site.factory] = name
	}

	routerLocal, err := transform.EnsureImport(tree, transform.Named(vueRouterSource, createRouterName))
	if err != nil {
		return err
	}

	return tree.Edit(func(ed *syntax.Editor) error {
		news := routerNews(tree, local)

		for _, site := range sites {
			if site.index >= len(news) {
				return fmt.Errorf("%w: call site %d disappeared", transform.ErrUnsupportedPattern, site.index)
			}

			var factoryArgs []string
			if site.base != "" {
				factoryArgs = append(factoryArgs, site.base)
			}

			n := news[site.index]
			history := syntax.PropertyText(historyKey, syntax.CallText(factoryLocals[site.factory], factoryArgs...))

			ed.ReplaceRange(n.Start, n.Field("constructor").End, routerLocal)
			rewriteRouterOptions(ed, n.Field("arguments").Items()[0], history)
		}

		return nil
	})
}

// rewriteRouterOptions drops the Vue Router 3 keys from obj and adds the
// history property in front, leaving every other property and comment as
// written.
func rewriteRouterOptions(ed *syntax.Editor, obj *syntax.Node, history string) {
	items := obj.Items()

	if len(items) == 0 {
		if len(obj.Children) == 0 {
			ed.Replace(obj, syntax.ObjectText([]string{history}, syntax.ListLayout{}))
		} else {
			ed.InsertBefore(obj.Children[0], history+" ")
		}

		return
	}

	var doomed []*syntax.Node

	for _, prop := range items {
		if key, _ := propertyParts(prop); routerOnlyKeys[key] {
			doomed = append(doomed, prop)
		}
	}

	if len(doomed) == len(items) {
		ed.Replace(items[0], history)
		ed.DeleteListItems(items[1:]...)

		return
	}

	sep := ", "
	if layout := syntax.LayoutOf(obj); layout.Multiline {
		sep = ",\n" + layout.Indent
	}

	ed.InsertBefore(items[0], history+sep)
	ed.DeleteListItems(doomed...)
}

// startLocationReads returns the <local>.START_LOCATION member expressions.
func startLocationReads(tree *syntax.Tree, local string) []*syntax.Node {
	return tree.Find(syntax.KindMemberExpr, func(n *syntax.Node) bool {
		return n.Field("object").IsIdentifier(local) && n.Field("property").Text() == startLocationName
	})
}

func rewriteStartLocation(tree *syntax.Tree, local string) error {
	if len(startLocationReads(tree, local)) == 0 {
		return nil
	}

	name, err := transform.EnsureImport(tree, transform.Named(vueRouterSource, startLocationName))
	if err != nil {
		return err
	}

	return tree.Edit(func(ed *syntax.Editor) error {
		for _, read := range startLocationReads(tree, local) {
			ed.Replace(read, name)
		}

		return nil
	})
}
