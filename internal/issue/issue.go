// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	ManifestInvalidId
	ConfigLoadFailedId
	TypeNotFoundId
	TypeNotEnabledId
	BindingNotFoundId
	BindingNotToggleableId
	QueryNoMatchesId
	DiscoveryNotEmptyId
	PackageNotLoadedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	name     string      // short name accepted by 'pkgbind issue <name>'
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Name() string {
	return i.name
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

// Render renders the issue with the glamour style at stylePath ("dark",
// "light", "auto" or a path to a JSON style).
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id:   ManifestNotFoundId,
		name: "manifest-not-found",
		mdMsg: `
# Package manifest not found

An installed package is listed in the root manifest, but its directory has
no ` + "`pkgbind.json`" + `. The package is kept in the project but none of its
types or bindings are loaded.

## Things you can try:
- Check the ` + "`install-path`" + ` of the package in the root manifest
- Reinstall the package
- List the package states:
~~~
$ pkgbind bind list --all
~~~`,
	}

	manifestInvalidIssue = &Issue{
		id:   ManifestInvalidId,
		name: "manifest-invalid",
		mdMsg: `
# Invalid manifest

A ` + "`pkgbind.json`" + ` does not match the manifest schema.

## Common causes:
- Type names must look like ` + "`vendor/name`" + ` (lowercase, digits and dashes)
- Binding keys must be UUIDs
- Parameter values must be strings, numbers, booleans or null
- A parameter cannot be required and have a default

## Example:
~~~json
{
    "binding-types": {
        "my/type": {"parameters": {"param": {"default": "x"}}}
    },
    "bindings": {
        "2438256b-c2f5-4a06-a18f-f79755e027dd": {"query": "/app/*.html", "type": "my/type"}
    }
}
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		name: "config",
		mdMsg: `
# Configuration could not be loaded

## Things you can try:
- Show the effective configuration and where it came from:
~~~
$ pkgbind config show
$ pkgbind config path
~~~
- Check ` + "`config.cue`" + ` and ` + "`pkgbind.toml`" + ` against the documented keys
- Unset ` + "`PKGBIND_*`" + ` environment variables you no longer need`,
	}

	typeNotFoundIssue = &Issue{
		id:   TypeNotFoundId,
		name: "type-not-found",
		mdMsg: `
# Binding type not found

No loaded package declares the binding type.

## Things you can try:
- List the known types:
~~~
$ pkgbind type list
~~~
- Define the type in the root package:
~~~
$ pkgbind type define my/type --param name=default
~~~
- Add the binding anyway; it stays *held back* until the type appears:
~~~
$ pkgbind bind add /app/*.html my/type --force
~~~`,
	}

	typeNotEnabledIssue = &Issue{
		id:   TypeNotEnabledId,
		name: "type-not-enabled",
		mdMsg: `
# Binding type not enabled

The type is declared by more than one installed package and none of them
wins. Declare the type in the root package to choose a definition.`,
	}

	bindingNotFoundIssue = &Issue{
		id:   BindingNotFoundId,
		name: "binding-not-found",
		mdMsg: `
# Binding not found

No loaded package declares a binding with this UUID. Only bindings of the
root package can be removed; bindings of installed packages are disabled
instead.

~~~
$ pkgbind bind list --all
~~~`,
	}

	bindingNotToggleableIssue = &Issue{
		id:   BindingNotToggleableId,
		name: "binding-not-toggleable",
		mdMsg: `
# Binding cannot be enabled or disabled

- Bindings of the root package are always enabled. Remove them instead.
- *Held back* bindings have no enabled type. Define the type first.
- *Ignored* bindings have parameters their type does not accept. Fix the
  package or the type.`,
	}

	queryNoMatchesIssue = &Issue{
		id:   QueryNoMatchesId,
		name: "query-no-matches",
		mdMsg: `
# Query matches no resource

Query checking is enabled (` + "`discovery.resource_root`" + `) and the glob
matches no path below the resource root. Paths are absolute and
slash-separated, e.g. ` + "`/app/views/*.html`" + `; ` + "`**`" + ` matches across
directories.`,
	}

	discoveryNotEmptyIssue = &Issue{
		id:   DiscoveryNotEmptyId,
		name: "discovery-not-empty",
		mdMsg: `
# Discovery is not empty

The registry can only be built from scratch. Rebuild it with:
~~~
$ pkgbind build --force
~~~`,
	}

	packageNotLoadedIssue = &Issue{
		id:   PackageNotLoadedId,
		name: "package-not-loaded",
		mdMsg: `
# Installed package not loaded

The package manifest is missing or invalid. Its bindings and types are
ignored until the manifest can be loaded. Run with ` + "`--verbose`" + ` to
see the load errors.`,
	}

	permissionDeniedIssue = &Issue{
		id:   PermissionDeniedId,
		name: "permission-denied",
		mdMsg: `
# Permission denied

The root manifest or the discovery registry could not be written. Check the
permissions of the project directory and of ` + "`discovery.store_path`" + `.`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():     manifestNotFoundIssue,
		manifestInvalidIssue.Id():      manifestInvalidIssue,
		configLoadFailedIssue.Id():     configLoadFailedIssue,
		typeNotFoundIssue.Id():         typeNotFoundIssue,
		typeNotEnabledIssue.Id():       typeNotEnabledIssue,
		bindingNotFoundIssue.Id():      bindingNotFoundIssue,
		bindingNotToggleableIssue.Id(): bindingNotToggleableIssue,
		queryNoMatchesIssue.Id():       queryNoMatchesIssue,
		discoveryNotEmptyIssue.Id():    discoveryNotEmptyIssue,
		packageNotLoadedIssue.Id():     packageNotLoadedIssue,
		permissionDeniedIssue.Id():     permissionDeniedIssue,
	}
)

// Values returns every issue ordered by ID.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup returns the issue with the given short name.
func Lookup(name string) (*Issue, bool) {
	for _, i := range issues {
		if i.name == name {
			return i, true
		}
	}
	return nil, false
}
