// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"slices"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
)

type Id int

const (
	ConfigUnreadableId Id = iota + 1
	FrameworkNotFoundId
	InvalidConfigurationId
	ModuleNotFoundId
	ExtensionLoadFailedId
	CompilationFailedId
	TemplateFailedId
	RoutesInvalidId
	PrecompileFailedId
	NotStartedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 {
		extraMd += "\n\n## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	configUnreadableIssue = &Issue{
		id: ConfigUnreadableId,
		mdMsg: `
# Cannot read application.conf!

The application configuration is read before anything else starts, so the
runtime cannot continue without it.

## Things you can try:
- Check that ` + "`conf/application.conf`" + ` exists under the application root
- Check the file permissions
- Point the runtime at the right directory:
~~~
$ appvisor run /path/to/app
~~~`,
	}

	frameworkNotFoundIssue = &Issue{
		id: FrameworkNotFoundId,
		mdMsg: `
# Where is the framework?

The runtime could not locate its install directory (the directory holding
the ` + "`VERSION`" + ` file, the built-in templates and modules).

## Things you can try:
- Set the install location explicitly:
~~~
$ export APPVISOR_HOME=/opt/appvisor
~~~
- Reinstall appvisor so that ` + "`bin/appvisor`" + ` sits next to ` + "`VERSION`",
	}

	invalidConfigurationIssue = &Issue{
		id: InvalidConfigurationId,
		mdMsg: `
# Invalid configuration!

A well-known key in application.conf has a value the runtime does not accept.

## Common issues:
- ` + "`application.mode`" + ` must be ` + "`dev`" + ` or ` + "`prod`" + `
- ` + "`application.log`" + ` must be one of TRACE, DEBUG, INFO, WARN, ERROR, FATAL, OFF`,
	}

	moduleNotFoundIssue = &Issue{
		id: ModuleNotFoundId,
		mdMsg: `
# Module not found!

A module declared in the MODULES environment variable or with a
` + "`module.<name>`" + ` key does not point at an existing directory.
The module was skipped and every other module still loaded.

## Things you can try:
- Fix the path (relative paths are resolved against the application root)
- Remove the stale ` + "`module.<name>`" + ` entry`,
	}

	extensionLoadFailedIssue = &Issue{
		id: ExtensionLoadFailedId,
		mdMsg: `
# Extension could not be loaded!

A line of ` + "`conf/appvisor.plugins`" + ` names an extension that is not
compiled into this binary, or its index is not a number.

## Expected line format:
~~~
100:acme.Metrics
~~~`,
	}

	compilationFailedIssue = &Issue{
		id: CompilationFailedId,
		mdMsg: `
# Compilation error!

One of the application's code units failed to compile. The application
will not serve until the error is fixed; in DEV mode the next change
triggers a fresh reload.`,
	}

	templateFailedIssue = &Issue{
		id: TemplateFailedId,
		mdMsg: `
# Template error!

A template under ` + "`app/views`" + ` (or a module's views) failed to parse.`,
	}

	routesInvalidIssue = &Issue{
		id: RoutesInvalidId,
		mdMsg: `
# Invalid route!

A line of ` + "`conf/routes`" + ` (or a module's routes file) does not have
the expected shape.

## Expected line format:
~~~
GET     /                       Application.index
*       /admin                  module:admin
~~~`,
	}

	precompileFailedIssue = &Issue{
		id: PrecompileFailedId,
		mdMsg: `
# Cannot start in PROD mode with errors!

Ahead-of-time preparation compiles every code unit and template before the
application starts. Any failure there stops the process.

## Things you can try:
- Run the application in DEV mode to see the error in context:
~~~
application.mode=dev
~~~`,
	}

	notStartedIssue = &Issue{
		id: NotStartedId,
		mdMsg: `
# Application not started!

Change detection finished but the application is not serving. The runtime
performs a full reload to recover.`,
	}

	issues = map[Id]*Issue{
		configUnreadableIssue.Id():     configUnreadableIssue,
		frameworkNotFoundIssue.Id():    frameworkNotFoundIssue,
		invalidConfigurationIssue.Id(): invalidConfigurationIssue,
		moduleNotFoundIssue.Id():       moduleNotFoundIssue,
		extensionLoadFailedIssue.Id():  extensionLoadFailedIssue,
		compilationFailedIssue.Id():    compilationFailedIssue,
		templateFailedIssue.Id():       templateFailedIssue,
		routesInvalidIssue.Id():        routesInvalidIssue,
		precompileFailedIssue.Id():     precompileFailedIssue,
		notStartedIssue.Id():           notStartedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	out := slices.Collect(maps.Values(issues))
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

func Get(id Id) *Issue {
	return issues[id]
}
