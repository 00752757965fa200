package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/aretw0/sitenav"
	"github.com/aretw0/sitenav/internal/presentation/graph"
	"github.com/aretw0/sitenav/internal/presentation/tui"
	"github.com/aretw0/sitenav/pkg/adapters/memory"
	"github.com/aretw0/sitenav/pkg/domain"
	"github.com/aretw0/sitenav/pkg/navpath"
	"github.com/muesli/termenv"
)

// BrowseOptions tunes the interactive browser.
type BrowseOptions struct {
	// Prompt prints "> " before reading each command; set when stdin is a terminal.
	Prompt bool
	// Banner prints the banner on start.
	Banner bool
	// Render turns page markdown into terminal output for "show"; nil prints raw markdown.
	Render func(string) (string, error)
}

// syncWriter serializes writes coming from the command loop and the target pump.
type syncWriter struct {
	mu      sync.Mutex
	w       io.Writer
	profile termenv.Profile
}

// ColorProfile reports the profile of the wrapped writer.
func (s *syncWriter) ColorProfile() termenv.Profile {
	return s.profile
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// RunBrowse runs an interactive navigation session reading commands from in:
//
//	<path or href>   navigate
//	back, forward    move through the history
//	tree             print the explorer
//	expand <path>    load the children of a branch
//	show             print the current page
//	q, quit, exit    stop
//
// Targets restored from the history and reloads of a watched source are reported as they happen.
func RunBrowse(ctx context.Context, cfg Config, logger *slog.Logger, in io.Reader, out io.Writer, opts BrowseOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	root, closeNav, err := OpenNavigation(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeNav()

	browser := memory.NewBrowser(memory.WithBrowserLogger(logger))
	router, err := sitenav.New(root, append(RouterOptions(cfg, logger), sitenav.WithBrowserClient(browser))...)
	if err != nil {
		return err
	}
	defer router.Close()

	w := &syncWriter{w: out, profile: tui.ProfileOf(out)}
	if opts.Banner {
		tui.PrintBanner(w)
	}

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		pumpTargets(ctx, router, w)
	}()
	defer func() {
		cancel()
		<-pumpDone
	}()

	scanner := bufio.NewScanner(NewInterruptibleReader(in, ctx.Done()))
	for {
		if opts.Prompt {
			fmt.Fprint(w, "> ")
		}
		if !scanner.Scan() {
			return handleExecutionError(scanner.Err())
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stop, err := browseCommand(ctx, router, browser, line, opts, w)
		if err != nil {
			printSystemMessage(w, "%v", err)
		}
		if stop {
			return nil
		}
	}
}

func browseCommand(ctx context.Context, router *sitenav.Router, browser *memory.Browser, line string, opts BrowseOptions, w io.Writer) (bool, error) {
	cmd, arg, _ := strings.Cut(line, " ")
	switch cmd {
	case "q", "quit", "exit":
		return true, nil
	case "back":
		if !browser.Prev() {
			return false, errors.New("no previous entry")
		}
	case "forward":
		if !browser.Next() {
			return false, errors.New("no next entry")
		}
	case "tree":
		fmt.Fprint(w, tui.RenderTree(tui.ProfileOf(w), graph.Collect(router.Explorer()), router.Current().Path))
	case "expand":
		id := hrefTarget(router, arg).Path
		if err := router.Expand(ctx, id); err != nil {
			return false, fmt.Errorf("expand %s: %w", id, err)
		}
		fmt.Fprint(w, tui.RenderTree(tui.ProfileOf(w), graph.Collect(router.Explorer()), router.Current().Path))
	case "show":
		current := router.Current()
		if current.Kind != domain.TargetResolved {
			return false, fmt.Errorf("nothing to show at %s", current.Path)
		}
		page := PageMarkdown(current.Node)
		if opts.Render != nil {
			rendered, err := opts.Render(page)
			if err != nil {
				return false, err
			}
			page = rendered
		}
		fmt.Fprint(w, page)
	default:
		target, err := router.NavigateTo(ctx, hrefTarget(router, line))
		if err != nil {
			return false, err
		}
		fmt.Fprintln(w, tui.RenderTarget(tui.ProfileOf(w), target))
	}
	return false, nil
}

func hrefTarget(router *sitenav.Router, href string) domain.UrlTarget {
	resolved := router.ResolveHRef(href)
	var target domain.UrlTarget
	if strings.HasPrefix(resolved, "?") {
		target = navpath.ParseURL(resolved)
	} else {
		target = navpath.Parse(resolved)
	}
	target.Issuer = domain.IssuerLink
	return target
}

// pumpTargets reports targets the command loop did not request itself.
func pumpTargets(ctx context.Context, router *sitenav.Router, w io.Writer) {
	targets, cancelTargets := router.Targets()
	defer cancelTargets()
	updates, cancelUpdates := router.Updates()
	defer cancelUpdates()

	for {
		select {
		case <-ctx.Done():
			return
		case t, ok := <-targets:
			if !ok {
				return
			}
			if t.IsTerminal() && (t.Issuer == domain.IssuerBrowser || t.ForceReload) {
				fmt.Fprintln(w, tui.RenderTarget(tui.ProfileOf(w), t))
			}
		case owner, ok := <-updates:
			if !ok {
				return
			}
			printSystemMessage(w, "Navigation changed under '%s'.", owner)
		}
	}
}
