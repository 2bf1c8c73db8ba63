// Command drivecli is a terminal client for the drive API. It drives
// the same directory view-model, upload batcher, and access editor the
// desktop surfaces use.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/ashvinparmar897/atc-drive-web/internal/config"
	"github.com/ashvinparmar897/atc-drive-web/pkg/adminaccess"
	"github.com/ashvinparmar897/atc-drive-web/pkg/capability"
	"github.com/ashvinparmar897/atc-drive-web/pkg/driveview"
	"github.com/ashvinparmar897/atc-drive-web/pkg/gateway"
	"github.com/ashvinparmar897/atc-drive-web/pkg/logging"
	"github.com/ashvinparmar897/atc-drive-web/pkg/models"
	"github.com/ashvinparmar897/atc-drive-web/pkg/protocol"
	"github.com/ashvinparmar897/atc-drive-web/pkg/upload"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: drivecli <command> [flags]

Commands:
  login      Log in and store a session
  register   Create an account
  logout     Discard the stored session
  whoami     Show the authenticated user
  ls         List a folder
  mkdir      Create a folder
  rename     Rename a folder or file
  rm         Delete a folder or file
  move       Move an entry to a new position in its folder
  search     Search folders and files
  upload     Upload files to a folder
  download   Download a file
  grants     List a user's folder grants
  grant      Grant folder access to a user
  revoke     Revoke folder access from a user
  users      Manage users (admin)

Run 'drivecli <command> -h' for command flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "logging init failed: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "login":
		err = cmdLogin(ctx, cfg, os.Args[2:])
	case "register":
		err = cmdRegister(ctx, cfg, os.Args[2:])
	case "logout":
		err = cmdLogout(cfg)
	case "whoami":
		err = cmdWhoami(ctx, cfg)
	case "ls":
		err = cmdLs(ctx, cfg, os.Args[2:])
	case "mkdir":
		err = cmdMkdir(ctx, cfg, os.Args[2:])
	case "rename":
		err = cmdRename(ctx, cfg, os.Args[2:])
	case "rm":
		err = cmdRm(ctx, cfg, os.Args[2:])
	case "move":
		err = cmdMove(ctx, cfg, os.Args[2:])
	case "search":
		err = cmdSearch(ctx, cfg, os.Args[2:])
	case "upload":
		err = cmdUpload(ctx, cfg, os.Args[2:])
	case "download":
		err = cmdDownload(ctx, cfg, os.Args[2:])
	case "grants":
		err = cmdGrants(ctx, cfg, os.Args[2:])
	case "grant":
		err = cmdGrant(ctx, cfg, os.Args[2:])
	case "revoke":
		err = cmdRevoke(ctx, cfg, os.Args[2:])
	case "users":
		err = cmdUsers(ctx, cfg, os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", gateway.UserMessage(err))
		os.Exit(1)
	}
}

// sessionStore builds the session store at the configured path.
func sessionStore(cfg *config.Config) *gateway.SessionStore {
	return gateway.NewSessionStore(cfg.SessionPath)
}

// newClient builds a gateway client with the stored session token, if
// any. A 401 tears the session down so the next command forces a fresh
// login.
func newClient(cfg *config.Config) *gateway.Client {
	store := sessionStore(cfg)
	client := gateway.New(gateway.Config{
		BaseURL: cfg.ServerURL,
		Timeout: cfg.RequestTimeout,
		OnUnauthorized: func() {
			if err := store.Delete(); err != nil {
				logging.Warn("session cleanup failed", logging.Err(err))
			}
		},
	})

	if session, err := store.Load(); err == nil {
		if session.IsExpired(0) {
			fmt.Fprintln(os.Stderr, "Stored session has expired; please log in again.")
			_ = store.Delete()
		} else {
			client.SetAuthToken(session.Token)
		}
	}
	return client
}

// requireCapability fetches the principal and checks the capability
// gate before a mutating command runs.
func requireCapability(ctx context.Context, client *gateway.Client, allowed func(capability.Set) bool) (*models.User, error) {
	user, err := client.Me(ctx)
	if err != nil {
		return nil, err
	}
	if !allowed(capability.ForRole(user.Role)) {
		return nil, fmt.Errorf("your role (%s) does not allow this operation", user.Role)
	}
	return user, nil
}

func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	if term.IsTerminal(int(syscall.Stdin)) {
		pw, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		return string(pw), err
	}
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	return strings.TrimSpace(line), err
}

func cmdLogin(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	username := fs.String("user", "", "Username or email (required)")
	fs.Parse(args)

	if *username == "" {
		return fmt.Errorf("-user is required")
	}
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	client := gateway.New(gateway.Config{BaseURL: cfg.ServerURL, Timeout: cfg.RequestTimeout})
	user, session, err := client.Login(ctx, *username, password)
	if err != nil {
		return err
	}
	if err := sessionStore(cfg).Save(session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	fmt.Printf("Logged in as %s (%s)\n", user.Username, user.Role)
	return nil
}

func cmdRegister(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	username := fs.String("user", "", "Username (required)")
	email := fs.String("email", "", "Email address (required)")
	fs.Parse(args)

	if *username == "" || *email == "" {
		return fmt.Errorf("-user and -email are required")
	}
	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}

	client := gateway.New(gateway.Config{BaseURL: cfg.ServerURL, Timeout: cfg.RequestTimeout})
	user, err := client.Register(ctx, *username, *email, password)
	if err != nil {
		return err
	}

	fmt.Printf("Registered %s. You can now log in.\n", user.Username)
	return nil
}

func cmdLogout(cfg *config.Config) error {
	if err := sessionStore(cfg).Delete(); err != nil {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

func cmdWhoami(ctx context.Context, cfg *config.Config) error {
	client := newClient(cfg)
	user, err := client.Me(ctx)
	if err != nil {
		return err
	}

	caps := capability.ForRole(user.Role)
	fmt.Printf("%s <%s>\n", user.Username, user.Email)
	fmt.Printf("  Role:         %s\n", user.Role)
	fmt.Printf("  Upload:       %v\n", caps.CanUpload)
	fmt.Printf("  Create:       %v\n", caps.CanCreateFolder)
	fmt.Printf("  Rename:       %v\n", caps.CanRename)
	fmt.Printf("  Delete:       %v\n", caps.CanDelete)
	fmt.Printf("  Manage users: %v\n", caps.CanManageUsers)
	return nil
}

// newView builds a view-model that prints notifications to stderr.
func newView(client *gateway.Client) *driveview.View {
	return driveview.New(client, driveview.WithNotifier(func(n driveview.Notification) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Severity, n.Message)
	}))
}

// resolveFolder fetches a folder by id, treating "" and the root
// sentinel as the root itself.
func resolveFolder(ctx context.Context, client *gateway.Client, id string) (*models.Folder, error) {
	if id == "" || id == models.RootID {
		return nil, nil
	}
	return client.GetFolder(ctx, id)
}

func cmdLs(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	folderID := fs.String("folder", "", "Folder id (default root)")
	sortKey := fs.String("sort", "name", "Sort key: name, type, size, modified, order (server display order, the positions move uses)")
	desc := fs.Bool("desc", false, "Sort descending")
	fs.Parse(args)

	client := newClient(cfg)
	folder, err := resolveFolder(ctx, client, *folderID)
	if err != nil {
		return err
	}

	view := newView(client)
	dir := driveview.SortAsc
	if *desc {
		dir = driveview.SortDesc
	}
	view.SetSort(driveview.SortKey(*sortKey), dir)

	if err := view.Navigate(ctx, folder); err != nil {
		return err
	}

	printCrumbs(view.Breadcrumbs())
	printEntries(view.Entries())
	rememberFolder(cfg, folder)
	return nil
}

// rememberFolder stores the last-visited folder in the session file so
// the next session can resume there.
func rememberFolder(cfg *config.Config, folder *models.Folder) {
	store := sessionStore(cfg)
	session, err := store.Load()
	if err != nil {
		return
	}
	if folder == nil {
		session.LastFolder = nil
	} else {
		session.LastFolder = &models.Crumb{ID: folder.ID, Name: folder.Name}
	}
	if err := store.Save(session); err != nil {
		logging.Warn("session update failed", logging.Err(err))
	}
}

func printCrumbs(crumbs []models.Crumb) {
	names := make([]string, 0, len(crumbs))
	for _, c := range crumbs {
		names = append(names, c.Name)
	}
	fmt.Println(strings.Join(names, " / "))
}

func printEntries(entries []models.Entry) {
	if len(entries) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, e := range entries {
		size := "-"
		if e.Kind == models.KindFile {
			size = formatSize(e.SizeBytes)
		}
		modified := "-"
		if t := entryModified(e); !t.IsZero() {
			modified = t.Format("2006-01-02 15:04")
		}
		fmt.Printf("  %-6s %-10s %-16s %s  [%s]\n", e.Kind, size, modified, e.Name, e.ID)
	}
}

func entryModified(e models.Entry) time.Time {
	if !e.UpdatedAt.IsZero() {
		return e.UpdatedAt
	}
	return e.CreatedAt
}

func formatSize(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fG", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fM", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fK", float64(n)/(1<<10))
	}
	return strconv.FormatInt(n, 10)
}

func cmdMkdir(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("mkdir", flag.ExitOnError)
	folderID := fs.String("folder", "", "Parent folder id (default root)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: drivecli mkdir [-folder id] <name>")
	}

	client := newClient(cfg)
	if _, err := requireCapability(ctx, client, func(c capability.Set) bool { return c.CanCreateFolder }); err != nil {
		return err
	}

	folder, err := resolveFolder(ctx, client, *folderID)
	if err != nil {
		return err
	}

	view := newView(client)
	if err := view.Navigate(ctx, folder); err != nil {
		return err
	}
	created, err := view.CreateFolder(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("Created folder %s [%s]\n", created.Name, created.ID)
	return nil
}

// findEntry locates a listing entry by id or name within the view.
func findEntry(view *driveview.View, ref string) (models.Entry, error) {
	for _, e := range view.Entries() {
		if e.ID == ref || e.Name == ref {
			return e, nil
		}
	}
	return models.Entry{}, fmt.Errorf("no entry %q in this folder", ref)
}

func cmdRename(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("rename", flag.ExitOnError)
	folderID := fs.String("folder", "", "Containing folder id (default root)")
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: drivecli rename [-folder id] <id-or-name> <new-name>")
	}

	client := newClient(cfg)
	if _, err := requireCapability(ctx, client, func(c capability.Set) bool { return c.CanRename }); err != nil {
		return err
	}

	folder, err := resolveFolder(ctx, client, *folderID)
	if err != nil {
		return err
	}

	view := newView(client)
	if err := view.Navigate(ctx, folder); err != nil {
		return err
	}
	entry, err := findEntry(view, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := view.Rename(ctx, entry, fs.Arg(1)); err != nil {
		return err
	}
	fmt.Printf("Renamed %s to %s\n", entry.Name, strings.TrimSpace(fs.Arg(1)))
	return nil
}

func cmdRm(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("rm", flag.ExitOnError)
	folderID := fs.String("folder", "", "Containing folder id (default root)")
	force := fs.Bool("f", false, "Skip the confirmation prompt")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: drivecli rm [-folder id] [-f] <id-or-name>")
	}

	client := newClient(cfg)
	if _, err := requireCapability(ctx, client, func(c capability.Set) bool { return c.CanDelete }); err != nil {
		return err
	}

	folder, err := resolveFolder(ctx, client, *folderID)
	if err != nil {
		return err
	}

	confirm := func(e models.Entry) bool {
		if *force {
			return true
		}
		fmt.Fprintf(os.Stderr, "Delete %s %q? [y/N] ", e.Kind, e.Name)
		reader := bufio.NewReader(os.Stdin)
		line, _ := reader.ReadString('\n')
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}

	view := driveview.New(client,
		driveview.WithConfirm(confirm),
		driveview.WithNotifier(func(n driveview.Notification) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", n.Severity, n.Message)
		}))
	if err := view.Navigate(ctx, folder); err != nil {
		return err
	}
	entry, err := findEntry(view, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := view.Delete(ctx, entry); err != nil {
		return err
	}
	return nil
}

func cmdMove(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("move", flag.ExitOnError)
	folderID := fs.String("folder", "", "Containing folder id (default root)")
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: drivecli move [-folder id] <id-or-name> <position>")
	}
	toIdx, err := strconv.Atoi(fs.Arg(1))
	if err != nil {
		return fmt.Errorf("position must be a number")
	}

	client := newClient(cfg)
	folder, err := resolveFolder(ctx, client, *folderID)
	if err != nil {
		return err
	}

	view := newView(client)
	if err := view.Navigate(ctx, folder); err != nil {
		return err
	}
	entry, err := findEntry(view, fs.Arg(0))
	if err != nil {
		return err
	}
	if err := view.Reorder(ctx, entry, toIdx); err != nil {
		return err
	}
	fmt.Printf("Moved %s to position %d\n", entry.Name, toIdx)
	return nil
}

func cmdSearch(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: drivecli search <query>")
	}

	client := newClient(cfg)
	entries, err := client.Search(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	printEntries(entries)
	return nil
}

func cmdUpload(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	folderID := fs.String("folder", "", "Target folder id (default root)")
	fs.Parse(args)

	if fs.NArg() == 0 {
		return fmt.Errorf("usage: drivecli upload [-folder id] <file>...")
	}

	client := newClient(cfg)
	if _, err := requireCapability(ctx, client, func(c capability.Set) bool { return c.CanUpload }); err != nil {
		return err
	}

	candidates, err := upload.NewCandidates(fs.Args())
	if err != nil {
		return err
	}

	var total int64
	for _, c := range candidates {
		total += c.SizeBytes
	}
	bar := progressbar.DefaultBytes(total, "uploading")

	orch := upload.New(client,
		upload.WithLimits(cfg.MaxUploadSize, cfg.MaxBatchFiles),
		upload.WithProgress(func(_ float64, sent, _ int64) {
			_ = bar.Set64(sent)
		}))

	files, err := orch.Upload(ctx, *folderID, candidates)
	if err != nil {
		return err
	}
	_ = bar.Finish()

	fmt.Printf("Uploaded %d file(s)\n", len(files))
	for _, f := range files {
		fmt.Printf("  %s [%s]\n", f.Filename, f.ID)
	}
	return nil
}

func cmdDownload(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("download", flag.ExitOnError)
	output := fs.String("o", "", "Output path (default the server filename)")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: drivecli download [-o path] <file-id>")
	}

	client := newClient(cfg)
	dl, err := client.RequestDownload(ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	if dl.URL != "" {
		// Redirect mode: the blob lives behind a presigned URL.
		fmt.Printf("%s\n", dl.URL)
		return nil
	}
	defer dl.Body.Close()

	path := *output
	if path == "" {
		path = dl.Filename
	}
	if path == "" {
		path = fs.Arg(0)
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	bar := progressbar.DefaultBytes(dl.Size, "downloading")
	if _, err := io.Copy(io.MultiWriter(out, bar), dl.Body); err != nil {
		return err
	}
	_ = bar.Finish()

	fmt.Printf("Saved %s\n", filepath.Clean(path))
	return nil
}

func cmdGrants(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("grants", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 1 {
		return fmt.Errorf("usage: drivecli grants <user-email>")
	}

	client := newClient(cfg)
	if _, err := requireCapability(ctx, client, func(c capability.Set) bool { return c.CanManageUsers }); err != nil {
		return err
	}

	editor := adminaccess.New(client)
	if err := editor.Open(ctx, fs.Arg(0)); err != nil {
		return err
	}

	grants := editor.Grants()
	if len(grants) == 0 {
		fmt.Printf("%s has no folder grants\n", fs.Arg(0))
		return nil
	}
	for _, g := range grants {
		fmt.Printf("  %-10s %s [%s]\n", g.Permission, g.FolderName, g.FolderID)
	}
	return nil
}

func cmdGrant(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("grant", flag.ExitOnError)
	permission := fs.String("permission", "viewer", "Permission to grant: viewer, editor, admin")
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: drivecli grant [-permission role] <user-email> <folder-id>")
	}

	client := newClient(cfg)
	if _, err := requireCapability(ctx, client, func(c capability.Set) bool { return c.CanManageUsers }); err != nil {
		return err
	}

	editor := adminaccess.New(client)
	if err := editor.Open(ctx, fs.Arg(0)); err != nil {
		return err
	}
	if err := editor.Assign(ctx, fs.Arg(1), models.Role(*permission)); err != nil {
		return err
	}

	fmt.Printf("Granted %s on folder %s to %s\n", *permission, fs.Arg(1), fs.Arg(0))
	return nil
}

func cmdRevoke(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() != 2 {
		return fmt.Errorf("usage: drivecli revoke <user-email> <folder-id>")
	}

	client := newClient(cfg)
	if _, err := requireCapability(ctx, client, func(c capability.Set) bool { return c.CanManageUsers }); err != nil {
		return err
	}

	editor := adminaccess.New(client)
	if err := editor.Open(ctx, fs.Arg(0)); err != nil {
		return err
	}
	if err := editor.Revoke(ctx, fs.Arg(1)); err != nil {
		return err
	}

	fmt.Printf("Revoked access to folder %s from %s\n", fs.Arg(1), fs.Arg(0))
	return nil
}

func cmdUsers(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: drivecli users <list|create|delete> [flags]")
	}

	client := newClient(cfg)
	if _, err := requireCapability(ctx, client, func(c capability.Set) bool { return c.CanManageUsers }); err != nil {
		return err
	}

	switch args[0] {
	case "list":
		users, err := client.ListUsers(ctx)
		if err != nil {
			return err
		}
		for _, u := range users {
			active := "active"
			if !u.IsActive {
				active = "inactive"
			}
			fmt.Printf("  %-20s %-30s %-8s %-8s [%s]\n", u.Username, u.Email, u.Role, active, u.ID)
		}
		return nil

	case "create":
		fs := flag.NewFlagSet("users create", flag.ExitOnError)
		username := fs.String("user", "", "Username (required)")
		email := fs.String("email", "", "Email (required)")
		role := fs.String("role", "viewer", "Role: viewer, editor, admin")
		fs.Parse(args[1:])

		if *username == "" || *email == "" {
			return fmt.Errorf("-user and -email are required")
		}
		password, err := readPassword("Password: ")
		if err != nil {
			return err
		}

		user, err := client.CreateUser(ctx, protocol.CreateUserRequest{
			Username: *username,
			Email:    *email,
			Password: password,
			Role:     *role,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created user %s [%s]\n", user.Username, user.ID)
		return nil

	case "delete":
		fs := flag.NewFlagSet("users delete", flag.ExitOnError)
		fs.Parse(args[1:])
		if fs.NArg() != 1 {
			return fmt.Errorf("usage: drivecli users delete <user-id>")
		}
		if err := client.DeleteUser(ctx, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Println("User deleted")
		return nil
	}

	return fmt.Errorf("unknown users subcommand %q", args[0])
}
