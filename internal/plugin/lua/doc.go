// Package lua runs script plugins on a sandboxed gopher-lua state.
//
// A script plugin is a directory holding plugin.yaml and an entry script.
// The script sees a preloaded "rover" module (also bound to the global
// rover) and may define install, activate and deactivate globals:
//
//	local rover = require("rover")
//
//	function install()
//		rover.bind("cd", function(sig)
//			rover.notify("now in " .. sig.new)
//		end, 0.4)
//	end
//
// Handlers receive the signal fields as a table. Writes to that table are
// copied back onto the signal; returning false or "stop" halts
// propagation.
//
// Only the base, table, string and math libraries are opened. dofile,
// loadfile, load and loadstring are removed and require resolves
// preloaded modules only. Every call into Lua runs under a timeout
// enforced through the state's context.
//
// States are not goroutine-safe; they belong to the runtime goroutine.
package lua
