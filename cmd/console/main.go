// Command console is the admin back office on the command line.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"adspace/internal/console"
	"adspace/internal/domain"

	"github.com/cockroachdb/errors"
	"golang.org/x/text/language"
)

const usage = `usage: console [-state file] <command> [args]

commands:
  login -api URL -email EMAIL      sign in (password from ADSPACE_PASSWORD or prompt)
  logout                           forget the saved session
  inquiries [-filter f] [-q text] [-sort s] [-lang tag]
  show ID                          print an inquiry without changing it
  view ID                          open an inquiry, marking it read
  status ID unread|read            set the inquiry status
  note ID TEXT...                  append a note
  forward ID EMAIL                 forward the inquiry by email
  feed [-open]                     new jobs, blogs and inquiries since the last visit
  messaging                        messaging channel status
`

func main() {
	stateFlag := flag.String("state", defaultStatePath(), "state file holding the session and notification feed")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := &app{store: console.NewFileStore(*stateFlag), out: os.Stdout, in: os.Stdin}
	if err := app.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		if console.IsUnauthorized(err) {
			fmt.Fprintln(os.Stderr, "session expired or missing, run: console login")
		}
		os.Exit(1)
	}
}

func defaultStatePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "adspace-console.json"
	}
	return filepath.Join(dir, "adspace", "console.json")
}

type app struct {
	store *console.FileStore
	out   io.Writer
	in    io.Reader
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.store.SaveSession(console.Session{})
	case "inquiries":
		return a.inquiries(ctx, args)
	case "show":
		return a.inquiryCmd(ctx, args, 1, func(c *console.Client) (*domain.Inquiry, error) {
			return c.Inquiry(ctx, args[0])
		})
	case "view":
		return a.inquiryCmd(ctx, args, 1, func(c *console.Client) (*domain.Inquiry, error) {
			return c.View(ctx, args[0])
		})
	case "status":
		return a.inquiryCmd(ctx, args, 2, func(c *console.Client) (*domain.Inquiry, error) {
			return c.UpdateStatus(ctx, args[0], args[1])
		})
	case "note":
		return a.inquiryCmd(ctx, args, 2, func(c *console.Client) (*domain.Inquiry, error) {
			return c.AddNote(ctx, args[0], strings.Join(args[1:], " "))
		})
	case "forward":
		return a.inquiryCmd(ctx, args, 2, func(c *console.Client) (*domain.Inquiry, error) {
			return c.Forward(ctx, args[0], args[1])
		})
	case "feed":
		return a.feed(ctx, args)
	case "messaging":
		return a.messaging(ctx)
	}
	return errors.Newf("unknown command %q", cmd)
}

func (a *app) client() (*console.Client, error) {
	sess, err := a.store.Session()
	if err != nil {
		return nil, err
	}
	if !sess.LoggedIn() {
		return nil, errors.New("not signed in, run: console login -api URL -email EMAIL")
	}
	return console.NewClient(sess, nil), nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	api := fs.String("api", "", "API base URL, e.g. http://localhost:8000")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *api == "" {
		prev, err := a.store.Session()
		if err != nil {
			return err
		}
		*api = prev.BaseURL
	}
	if *api == "" || *email == "" {
		return errors.New("login needs -api and -email")
	}

	password := os.Getenv("ADSPACE_PASSWORD")
	if password == "" {
		fmt.Fprint(a.out, "Password: ")
		var err error
		if password, err = readLine(a.in); err != nil {
			return err
		}
	}

	sess, err := console.NewClient(console.Session{BaseURL: *api}, nil).Login(ctx, *email, password)
	if err != nil {
		return err
	}
	if err := a.store.SaveSession(sess); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", sess.Email, sess.Role)
	return nil
}

func (a *app) inquiries(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("inquiries", flag.ContinueOnError)
	filter := fs.String("filter", "all", "all, read or unread")
	query := fs.String("q", "", "search name, email and message")
	order := fs.String("sort", "latest", "latest, oldest or name")
	lang := fs.String("lang", "en", "language tag for name ordering")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := console.ParseFilter(*filter)
	if err != nil {
		return err
	}
	o, err := console.ParseSort(*order)
	if err != nil {
		return err
	}
	tag, err := language.Parse(*lang)
	if err != nil {
		return errors.Wrapf(err, "invalid -lang %q", *lang)
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	items, err := c.Inquiries(ctx)
	if err != nil {
		return err
	}

	view := console.View{Filter: f, Query: *query, Sort: o, Lang: tag}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tFWD\tNAME\tEMAIL\tTOPIC\tRECEIVED")
	for _, inq := range view.Apply(items) {
		fwd := ""
		if inq.IsForwarded {
			fwd = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			inq.ID, inq.Status, fwd, inq.FullName(), inq.Email, inq.Topic, inq.CreatedAt.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

func (a *app) inquiryCmd(ctx context.Context, args []string, want int, call func(*console.Client) (*domain.Inquiry, error)) error {
	if len(args) < want {
		return errors.Newf("expected %d argument(s), got %d", want, len(args))
	}
	c, err := a.client()
	if err != nil {
		return err
	}
	inq, err := call(c)
	if err != nil {
		return err
	}
	printInquiry(a.out, inq)
	return nil
}

func printInquiry(w io.Writer, inq *domain.Inquiry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, row := range [][2]string{
		{"ID", inq.ID},
		{"Status", string(inq.Status)},
		{"Forwarded", fmt.Sprint(inq.IsForwarded)},
		{"Name", inq.FullName()},
		{"Email", inq.Email},
		{"Phone", inq.Phone},
		{"City", inq.City},
		{"State", inq.AdvertisingState},
		{"Market", inq.AdvertisingMarket},
		{"Topic", inq.Topic},
		{"Media", inq.Media},
		{"Received", inq.CreatedAt.Local().Format(time.DateTime)},
	} {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%s\n", inq.Message)
	if len(inq.Notes) > 0 {
		fmt.Fprintln(w, "\nNotes:")
		for _, n := range inq.Notes {
			fmt.Fprintf(w, "  [%s] %s\n", n.CreatedAt.Local().Format(time.DateTime), n.Content)
		}
	}
}

func (a *app) feed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("feed", flag.ContinueOnError)
	open := fs.Bool("open", false, "mark the new notifications as seen")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c, err := a.client()
	if err != nil {
		return err
	}
	feed, err := console.NewFeed(ctx, a.store, time.Now())
	if err != nil {
		return err
	}

	inquiries, err := c.Inquiries(ctx)
	if err != nil {
		return err
	}
	jobs, err := c.Jobs(ctx)
	if err != nil {
		return err
	}
	blogs, err := c.Blogs(ctx)
	if err != nil {
		return err
	}
	feed.LoadInquiries(inquiries)
	feed.LoadJobs(jobs)
	feed.LoadBlogs(blogs)

	fmt.Fprintf(a.out, "%d new since %s\n", feed.Badge(), feed.Watermark().Local().Format(time.DateTime))
	printNotifications(a.out, feed.Active())

	if !*open {
		return nil
	}
	if _, err := feed.Open(ctx, time.Now()); err != nil {
		return err
	}
	if history := feed.History(); len(history) > 0 {
		fmt.Fprintln(a.out, "\nRecent:")
		printNotifications(a.out, history)
	}
	return nil
}

func printNotifications(w io.Writer, ns []console.Notification) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, n := range ns {
		fmt.Fprintf(tw, "  %s\t%s\t%s\t%s\n", n.Kind, n.ID, n.Title, n.CreatedAt.Local().Format(time.DateTime))
	}
	_ = tw.Flush()
}

func (a *app) messaging(ctx context.Context) error {
	c, err := a.client()
	if err != nil {
		return err
	}
	st, err := c.MessagingStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Provider: %s\nReady:    %v\n", st.Provider, st.Ready)
	if st.Detail != "" {
		fmt.Fprintf(a.out, "Detail:   %s\n", st.Detail)
	}
	if st.QR != "" {
		fmt.Fprintf(a.out, "Pairing QR:\n%s\n", st.QR)
	}
	return nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", errors.Wrap(err, "read password")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
