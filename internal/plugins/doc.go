// Package plugins holds the plugins bundled with rover and the glue that
// turns plugin.yaml manifests into Lua-backed descriptors.
//
// Bundled plugins:
//
//	dirloader  implements data_loader; scans the pathway after cd and
//	           whenever a pathway directory goes stale
//	throbber   requires data_loader; shows loader progress
//	bookmarks  implements bookmarks; mark and jump commands
//	watch      depends on dirloader, implements fs_watch; marks cached
//	           directories stale when they change on disk
//	title      sets the terminal title on cd when update_title is on
//
// Plugins bind in their activate hook and unbind in deactivate, so a
// deactivated plugin leaves nothing on the bus.
package plugins
