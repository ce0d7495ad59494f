package event

// Signals emitted by the runtime and bundled plugins.
const (
	// SignalCommandPre fires before a command runs. Fields: line,
	// commandName. Stopping it vetoes the command.
	SignalCommandPre = "command.pre"
	// SignalCommandPost fires after a command ran. Fields: line,
	// commandName, err.
	SignalCommandPost = "command.post"

	SignalLoopStart = "loop.start"
	SignalLoopEnd   = "loop.end"

	// SignalCoreInit is emitted vitally once plugins are installed.
	SignalCoreInit = "core.init"
	SignalCoreRun  = "core.run"
	SignalCoreQuit = "core.quit"

	// SignalSettingChanged fields: key, value, previous. Handlers may
	// overwrite value or stop the signal to veto the change.
	SignalSettingChanged = "setting.changed"

	// SignalGarbageCollect fields: evicted, age.
	SignalGarbageCollect = "garbage_collect"

	// SignalCd fields: previous, new.
	SignalCd = "cd"

	// SignalNotify fields: message, bad.
	SignalNotify = "notify"

	// SignalDirectoryLoaded fields: path, count. Emitted when a scan commits.
	SignalDirectoryLoaded = "directory.loaded"

	SignalPluginInstalled   = "plugin.installed"
	SignalPluginActivated   = "plugin.activated"
	SignalPluginDeactivated = "plugin.deactivated"
)
