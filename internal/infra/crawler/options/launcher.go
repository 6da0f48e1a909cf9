package options

import (
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
)

// LauncherOption 对 rod 启动器的一项配置,零值参数表示不修改默认值
type LauncherOption func(l *launcher.Launcher)

// CreateLauncher userMode 为 true 时复用本机已安装的浏览器与用户配置
func CreateLauncher(userMode bool, opts ...LauncherOption) *launcher.Launcher {
	var l *launcher.Launcher
	if userMode {
		l = launcher.NewUserMode()
	} else {
		l = launcher.New()
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func WithBin(bin string) LauncherOption {
	return func(l *launcher.Launcher) {
		if bin != "" {
			l.Bin(bin)
		}
	}
}

func WithUserDataDir(dir string) LauncherOption {
	return func(l *launcher.Launcher) {
		if dir != "" {
			l.UserDataDir(dir)
		}
	}
}

func WithHeadless(enable bool) LauncherOption {
	return func(l *launcher.Launcher) {
		l.Headless(enable)
	}
}

func WithDisableBlinkFeatures(features string) LauncherOption {
	return func(l *launcher.Launcher) {
		if features != "" {
			l.Set(flags.Flag("disable-blink-features"), features)
		}
	}
}

func WithIncognito(enable bool) LauncherOption {
	return setBool("incognito", enable)
}

func WithDisableDevShmUsage(enable bool) LauncherOption {
	return setBool("disable-dev-shm-usage", enable)
}

func WithNoSandbox(enable bool) LauncherOption {
	return func(l *launcher.Launcher) {
		l.NoSandbox(enable)
	}
}

func WithUserAgent(ua string) LauncherOption {
	return func(l *launcher.Launcher) {
		if ua != "" {
			l.Set(flags.Flag("user-agent"), ua)
		}
	}
}

func WithLeakless(enable bool) LauncherOption {
	return func(l *launcher.Launcher) {
		l.Leakless(enable)
	}
}

func WithDisableBackgroundNetworking(enable bool) LauncherOption {
	return setBool("disable-background-networking", enable)
}

func WithDisableBackgroundTimerThrottling(enable bool) LauncherOption {
	return setBool("disable-background-timer-throttling", enable)
}

func WithRemoteDebuggingPort(port int) LauncherOption {
	return func(l *launcher.Launcher) {
		if port > 0 {
			l.RemoteDebuggingPort(port)
		}
	}
}

func setBool(name string, enable bool) LauncherOption {
	return func(l *launcher.Launcher) {
		if enable {
			l.Set(flags.Flag(name))
		} else {
			l.Delete(flags.Flag(name))
		}
	}
}
