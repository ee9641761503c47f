package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"newsdesk/pkg/crud"
	"newsdesk/pkg/news"
	"newsdesk/pkg/ticker"
)

var tickerModal bool

var tickerCmd = &cobra.Command{
	Use:   "ticker",
	Short: "Rotate through the active announcements",
	Long: `Prints the active announcements one at a time. Type n or p and enter
to move forward or back, or a number to jump to that announcement.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, err := crud.NewClient(strings.TrimRight(cfg.Client.BaseURL, "/")+"/api", crud.WithTimeout(cfg.Client.Timeout))
		if err != nil {
			return err
		}

		interval := cfg.Ticker.Interval
		if tickerModal {
			interval = cfg.Ticker.ModalInterval
		}

		out := cmd.OutOrStdout()
		var mu sync.Mutex
		tk := ticker.New(ticker.LoadFromClient(client, news.Announcements),
			ticker.WithInterval(interval),
			ticker.WithLogger(logger.WithField("component", "ticker")),
			ticker.OnChange(func(f ticker.Frame) {
				mu.Lock()
				defer mu.Unlock()
				printFrame(out, f)
			}),
		)
		if err := tk.Start(ctx); err != nil {
			return err
		}
		defer tk.Stop()

		go readNavigation(cmd.InOrStdin(), tk, cmd.ErrOrStderr())
		<-ctx.Done()
		return nil
	},
}

func init() {
	tickerCmd.Flags().BoolVar(&tickerModal, "modal", false, "use the slower modal rotation interval")
}

func printFrame(w io.Writer, f ticker.Frame) {
	fmt.Fprintf(w, "[%d/%d] %s\n", f.Index+1, f.Total, f.Item.Title)
	if f.Item.Content != "" {
		fmt.Fprintf(w, "      %s\n", f.Item.Content)
	}
}

func readNavigation(in io.Reader, tk *ticker.Ticker, errOut io.Writer) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd := strings.TrimSpace(scanner.Text())
		switch cmd {
		case "":
		case "n":
			tk.Next()
		case "p":
			tk.Previous()
		default:
			n, err := strconv.Atoi(cmd)
			if err != nil {
				fmt.Fprintf(errOut, "unknown input %q\n", cmd)
				continue
			}
			if err := tk.GoTo(n - 1); err != nil {
				fmt.Fprintln(errOut, err)
			}
		}
	}
}
