// Package plugin resolves and installs rover plugins.
//
// A plugin is described by a Descriptor: the plugins it depends on, the
// features it requires, the features it implements, and optional install,
// activate and deactivate hooks. Descriptors come from a Finder, either the
// static Registry of Go plugins or a ManifestFinder that reads plugin.yaml
// files from the user and bundled plugin directories.
//
// The Resolver installs plugins depth-first: dependencies install before
// their dependents, the first plugin to implement a feature owns it, and
// a plugin whose required features are not implemented yet fails with
// *MissingFeatureError. Cycles are reported as *DependencyCycleError with
// the chain that closed the loop:
//
//	r := plugin.NewResolver(plugin.Finders(registry, manifests))
//	if err := r.InstallAll("base", "!mouse", "~bookmarks", "dirloader"); err != nil {
//		var cycle *plugin.DependencyCycleError
//		if errors.As(err, &cycle) {
//			fmt.Println(cycle.Chain())
//		}
//	}
//
// Configuration lists use "!name" to exclude a plugin and "~feature" to
// exclude every plugin implementing a feature. Forced installs bypass both.
package plugin
