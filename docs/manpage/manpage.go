// Package manpage generates a roff-formatted man page for menu-meters.
//
// Options, key bindings and settings keys are read from the running binary,
// so the page always matches the build it came from.
//
// Usage:
//
//	menu-meters -man | man -l -
//	menu-meters -man > ~/.local/share/man/man1/menu-meters.1
package manpage

import (
	"flag"
	"fmt"
	"sort"
	"strings"
	"time"

	"gitlab.com/tinyland/lab/menu-meters/display/tui"
	"gitlab.com/tinyland/lab/menu-meters/settings"
)

// Generate produces a complete man(1) page. flags is the command line flag
// set; nil documents no options.
func Generate(version, commit, date string, flags *flag.FlagSet) string {
	var b strings.Builder

	writeHeader(&b, version)
	writeName(&b)
	writeSynopsis(&b)
	writeDescription(&b)
	writeOptions(&b, flags)
	writeKeybindings(&b)
	writeConfiguration(&b)
	writeSettings(&b)
	writeFiles(&b)
	writeExamples(&b)
	writeEnvironment(&b)
	writeExitStatus(&b)
	writeSeeAlso(&b)
	writeFooter(&b, version, commit, date)

	return b.String()
}

// roffEscape escapes special roff characters in a string.
func roffEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `-`, `\-`)
	if strings.HasPrefix(s, ".") || strings.HasPrefix(s, "'") {
		s = `\&` + s
	}
	return s
}

func writeHeader(b *strings.Builder, version string) {
	month := time.Now().Format("January 2006")
	fmt.Fprintf(b, ".TH MENU-METERS 1 \"%s\" \"menu-meters %s\" \"User Commands\"\n", month, version)
}

func writeName(b *strings.Builder) {
	b.WriteString(`.SH NAME
menu\-meters \- processor, memory, network and disk meters for the terminal
`)
}

func writeSynopsis(b *strings.Builder) {
	b.WriteString(`.SH SYNOPSIS
.B menu\-meters
[\fIOPTIONS\fR]
`)
}

func writeDescription(b *strings.Builder) {
	b.WriteString(`.SH DESCRIPTION
.B menu\-meters
samples system activity on a fixed interval per indicator and draws each
indicator as a small graph. Frames are rendered off screen at the configured
scale and shown as half block characters, or as inline images on terminals
that speak the kitty or iTerm2 graphics protocols.
.PP
Four indicators are available:
.IP \(bu 2
.B processor
stacks system and user load as a history graph.
.IP \(bu 2
.B memory
shows a used/free pie with the used amount in megabytes.
.IP \(bu 2
.B network
mirrors download and upload rates around a center line.
.IP \(bu 2
.B disk
shows free space on one mount point.
.PP
An indicator that fails to render three times in a row is frozen and stops
ticking until it is toggled again.
`)
}

func writeOptions(b *strings.Builder, flags *flag.FlagSet) {
	b.WriteString(".SH OPTIONS\n")
	if flags == nil {
		return
	}
	flags.VisitAll(func(f *flag.Flag) {
		name, usage := flag.UnquoteUsage(f)
		b.WriteString(".TP\n")
		if name != "" {
			fmt.Fprintf(b, "\\fB\\-%s\\fR \\fI%s\\fR\n", roffEscape(f.Name), roffEscape(name))
		} else {
			fmt.Fprintf(b, "\\fB\\-%s\\fR\n", roffEscape(f.Name))
		}
		b.WriteString(roffEscape(usage))
		if f.DefValue != "" && f.DefValue != "false" {
			fmt.Fprintf(b, " (default: %s)", roffEscape(f.DefValue))
		}
		b.WriteString("\n")
	})
}

func writeKeybindings(b *strings.Builder) {
	b.WriteString(".SH KEYBINDINGS\n")
	b.WriteString("The dashboard accepts these keys. Clicking a panel toggles its indicator.\n")
	for _, k := range tui.Bindings() {
		keys := make([]string, 0, len(k.Keys()))
		for _, key := range k.Keys() {
			keys = append(keys, roffEscape(key))
		}
		fmt.Fprintf(b, ".TP\n.B %s\n%s\n", strings.Join(keys, ", "), roffEscape(k.Help().Desc))
	}
}

func writeConfiguration(b *strings.Builder) {
	b.WriteString(`.SH CONFIGURATION
Runtime options live in a TOML file. Every key is optional.
.PP
.nf
[general]
log_level = "info"
settings_path = ""

[render]
protocol = "auto"      # auto, unicode, kitty or iterm2
scale = 1.0

[breaker]
max_failures = 5
reset_timeout = "30s"

[indicators.processor]
enabled = true
width = 35
height = 22
interval = "500ms"

[indicators.disk]
mount = "/"
.fi
.PP
The memory and network tables take the same keys as processor.
`)
}

func writeSettings(b *strings.Builder) {
	b.WriteString(`.SH SETTINGS
Colours and units are read from a YAML settings file that is reloaded when it
changes. Colours are hex strings such as \fB#2ecc71\fR.
`)
	defaults, err := settings.Defaults()
	if err != nil {
		fmt.Fprintf(b, ".PP\nDefaults unavailable: %s\n", roffEscape(err.Error()))
		return
	}
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, ".TP\n.B %s\ndefault: %s\n", roffEscape(k), roffEscape(defaults[k]))
	}
}

func writeFiles(b *strings.Builder) {
	b.WriteString(`.SH FILES
.TP
.I ~/.config/menu\-meters/config.toml
Configuration file.
.TP
.I ~/.config/menu\-meters/settings.yaml
Palette and unit settings. Created from the defaults on first run.
.TP
.I ~/.cache/menu\-meters/menu\-meters.log
Log file written while the dashboard owns the terminal.
`)
}

func writeExamples(b *strings.Builder) {
	b.WriteString(`.SH EXAMPLES
Open the dashboard:
.PP
.nf
menu\-meters
.fi
.PP
Print every frame once and report health:
.PP
.nf
menu\-meters \-health
.fi
.PP
Check that every sampler works on this machine:
.PP
.nf
menu\-meters \-probe
.fi
.PP
Show disk space in gigabytes:
.PP
.nf
menu\-meters \-set diskSpaceUnit=Go
.fi
`)
}

func writeEnvironment(b *strings.Builder) {
	b.WriteString(`.SH ENVIRONMENT
.TP
.B MENU_METERS_SETTINGS
Override the settings file path.
.TP
.B MENU_METERS_PROTOCOL
Override the image protocol.
.TP
.B MENU_METERS_LOG_LEVEL
Override the log level.
.TP
.B NO_COLOR
Disable colour output.
.TP
.B XDG_CONFIG_HOME
Base directory for the configuration and settings files.
`)
}

func writeExitStatus(b *strings.Builder) {
	b.WriteString(".SH EXIT STATUS\n")
	b.WriteString(".TP\n.B 0\nSuccess.\n")
	b.WriteString(".TP\n.B 1\nA sampler, indicator or settings operation failed.\n")
	b.WriteString(".TP\n.B 2\nA malformed \\fB\\-set\\fR argument.\n")
}

func writeSeeAlso(b *strings.Builder) {
	b.WriteString(`.SH SEE ALSO
.BR top (1),
.BR df (1),
.BR kitty (1)
`)
}

func writeFooter(b *strings.Builder, version, commit, date string) {
	fmt.Fprintf(b, ".SH VERSION\n%s (%s) built %s\n", version, commit, date)
}
