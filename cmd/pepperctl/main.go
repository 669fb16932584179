package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"pepperbot/internal/client"
	"pepperbot/internal/controller"
	"pepperbot/internal/domain"
	"pepperbot/internal/logger"
	"pepperbot/internal/query"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const defaultAPIURL = "http://localhost:8080"

const usage = `pepperctl - terminal client for the PepperBot API

Usage:
  pepperctl register <username> <email>
  pepperctl login <username>
  pepperctl logout
  pepperctl me
  pepperctl deals [-search s] [-store name] [-sort key]
  pepperctl stores
  pepperctl lists
  pepperctl newlist <title>
  pepperctl list <list-id>
  pepperctl notifications [-unread]

Sort keys: newest, oldest, price-low, price-high, discount
Environment: PEPPERBOT_API_URL (default ` + defaultAPIURL + `)`

func main() {
	godotenv.Load()

	log, err := logger.New("production")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	baseURL := os.Getenv("PEPPERBOT_API_URL")
	if baseURL == "" {
		baseURL = defaultAPIURL
	}

	api, err := client.New(baseURL, log)
	if err != nil {
		fatal("invalid API url: %v", err)
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(2)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "register":
		cmdRegister(ctx, api, os.Args[2:])
	case "login":
		cmdLogin(ctx, api, os.Args[2:])
	case "logout":
		if err := api.Logout(ctx); err != nil {
			fatal("logout failed: %v", err)
		}
		fmt.Println("Logged out.")
	case "me":
		cmdMe(ctx, api)
	case "deals":
		cmdDeals(ctx, api, os.Args[2:])
	case "stores":
		cmdStores(ctx, api)
	case "lists":
		cmdLists(ctx, api)
	case "newlist":
		cmdNewList(ctx, api, os.Args[2:])
	case "list":
		cmdListSession(ctx, api, os.Args[2:])
	case "notifications":
		cmdNotifications(ctx, api, os.Args[2:])
	default:
		fmt.Println(usage)
		os.Exit(2)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func readPassword(prompt string) string {
	fmt.Print(prompt)
	pw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fatal("failed to read password: %v", err)
	}
	return string(pw)
}

func cmdRegister(ctx context.Context, api *client.Client, args []string) {
	if len(args) != 2 {
		fatal("usage: pepperctl register <username> <email>")
	}

	password := readPassword("Password: ")

	user, err := api.Register(ctx, args[0], args[1], password)
	if err != nil {
		fatal("registration failed: %v", err)
	}

	fmt.Printf("Registered %s. Now run: pepperctl login %s\n", user.Username, user.Username)
}

func cmdLogin(ctx context.Context, api *client.Client, args []string) {
	if len(args) != 1 {
		fatal("usage: pepperctl login <username>")
	}

	password := readPassword("Password: ")

	if err := api.Login(ctx, args[0], password); err != nil {
		fatal("login failed: %v", err)
	}

	fmt.Println("Logged in.")
}

func cmdMe(ctx context.Context, api *client.Client) {
	user, err := api.Me(ctx)
	if err != nil {
		fatal("not logged in: %v", err)
	}

	fmt.Printf("%s <%s>\n", user.Username, user.Email)
}

func cmdDeals(ctx context.Context, api *client.Client, args []string) {
	fs := flag.NewFlagSet("deals", flag.ExitOnError)
	search := fs.String("search", "", "substring match on title, description and store")
	store := fs.String("store", "", "exact store filter")
	sortKey := fs.String("sort", string(query.SortNewest), "sort key")
	fs.Parse(args)

	discounts, err := api.Discounts(ctx, "", 0, 500)
	if err != nil {
		fatal("failed to fetch deals: %v", err)
	}

	results := query.Run(discounts, *search, *store, query.Sort(*sortKey))

	if len(results) == 0 {
		fmt.Println("No deals match.")
		return
	}

	for _, d := range results {
		line := fmt.Sprintf("%-12s %s", d.Store, d.Title)

		if d.DiscountPrice != nil {
			line += fmt.Sprintf("  %g", *d.DiscountPrice)
			if d.OriginalPrice != nil {
				line += fmt.Sprintf(" (was %g)", *d.OriginalPrice)
			}
		}
		if d.DiscountPercentage != nil {
			line += fmt.Sprintf("  -%g%%", *d.DiscountPercentage)
		}

		fmt.Println(line)
	}
}

func cmdStores(ctx context.Context, api *client.Client) {
	discounts, err := api.Discounts(ctx, "", 0, 500)
	if err != nil {
		fatal("failed to fetch deals: %v", err)
	}

	for _, store := range query.UniqueStores(discounts) {
		fmt.Println(store)
	}
}

func cmdLists(ctx context.Context, api *client.Client) {
	lists, err := api.Lists(ctx, 0, 100)
	if err != nil {
		fatal("failed to fetch lists: %v", err)
	}

	if len(lists) == 0 {
		fmt.Println("No shopping lists. Create one with: pepperctl newlist <title>")
		return
	}

	for _, l := range lists {
		fmt.Printf("%s  %s\n", l.ID, l.Title)
	}
}

func cmdNewList(ctx context.Context, api *client.Client, args []string) {
	if len(args) < 1 {
		fatal("usage: pepperctl newlist <title>")
	}

	title := strings.Join(args, " ")

	list, err := api.CreateList(ctx, title, nil)
	if err != nil {
		fatal("failed to create list: %v", err)
	}

	fmt.Printf("Created %s (%s)\n", list.Title, list.ID)
}

func cmdNotifications(ctx context.Context, api *client.Client, args []string) {
	fs := flag.NewFlagSet("notifications", flag.ExitOnError)
	unread := fs.Bool("unread", false, "unread only")
	fs.Parse(args)

	notifications, err := api.Notifications(ctx, *unread, 0, 100)
	if err != nil {
		fatal("failed to fetch notifications: %v", err)
	}

	if len(notifications) == 0 {
		fmt.Println("No notifications.")
		return
	}

	for _, n := range notifications {
		marker := " "
		if !n.IsRead {
			marker = "*"
		}
		fmt.Printf("%s %s  %s: %s\n", marker, n.ID, n.Title, n.Message)
	}
}

// cmdListSession opens an interactive session on one shopping list,
// driven by the lifecycle controller.
func cmdListSession(ctx context.Context, api *client.Client, args []string) {
	if len(args) != 1 {
		fatal("usage: pepperctl list <list-id>")
	}

	listID, err := uuid.Parse(args[0])
	if err != nil {
		fatal("invalid list id: %v", err)
	}

	stdin := bufio.NewScanner(os.Stdin)

	confirm := controller.ConfirmFunc(func(prompt string) bool {
		fmt.Printf("%s [y/N]: ", prompt)
		if !stdin.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(stdin.Text()))
		return answer == "y" || answer == "yes"
	})

	ctl := controller.NewListController(api, confirm, listID)
	ctl.Load(ctx)

	for {
		switch ctl.Phase() {
		case controller.PhaseNotFound:
			fmt.Println("Shopping list not found.")
			return
		case controller.PhaseClosed:
			fmt.Println("Shopping list deleted.")
			return
		case controller.PhaseLoading:
			// load failed, error is shown below before the retry prompt
		}

		render(ctl)

		fmt.Print("> ")
		if !stdin.Scan() {
			return
		}

		if !dispatch(ctx, ctl, stdin, strings.TrimSpace(stdin.Text())) {
			return
		}
	}
}

func render(ctl *controller.ListController) {
	if err := ctl.Err(); err != "" {
		fmt.Println("!", err)
	}

	if ctl.Phase() != controller.PhaseLoaded {
		fmt.Println("(type 'load' to retry, 'quit' to exit)")
		return
	}

	list := ctl.List()
	fmt.Printf("\n== %s ==\n", list.Title)

	items := ctl.Items()
	if len(items) == 0 {
		fmt.Println("(empty)")
	}

	for i, item := range items {
		check := " "
		if item.IsCompleted {
			check = "x"
		}

		line := fmt.Sprintf("%2d [%s] %s", i+1, check, item.Name)
		if item.Quantity != 1 {
			line += fmt.Sprintf(" (%g", item.Quantity)
			if item.Unit != nil {
				line += " " + *item.Unit
			}
			line += ")"
		}
		fmt.Println(line)
	}

	fmt.Println("\ncommands: add <name> [qty] [unit] | toggle <n> | edit <n> | del <n> | rmlist | quit")
}

// dispatch executes one command line. Returns false to end the session.
func dispatch(ctx context.Context, ctl *controller.ListController, stdin *bufio.Scanner, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	switch fields[0] {
	case "quit", "exit":
		return false

	case "load":
		ctl.Load(ctx)

	case "add":
		if len(fields) < 2 {
			fmt.Println("usage: add <name> [qty] [unit]")
			return true
		}

		name := fields[1]
		quantity := 1.0
		unit := ""

		if len(fields) >= 3 {
			if q, err := strconv.ParseFloat(fields[2], 64); err == nil {
				quantity = q
			}
		}
		if len(fields) >= 4 {
			unit = fields[3]
		}

		ctl.AddItem(ctx, name, quantity, unit)

	case "toggle":
		if item := itemByIndex(ctl, fields); item != nil {
			ctl.ToggleComplete(ctx, item.ID)
		}

	case "edit":
		item := itemByIndex(ctl, fields)
		if item == nil {
			return true
		}

		ctl.BeginEdit(item.ID)
		editDraft(ctx, ctl, stdin)

	case "del":
		if item := itemByIndex(ctl, fields); item != nil {
			ctl.DeleteItem(ctx, item.ID)
		}

	case "rmlist":
		ctl.DeleteList(ctx)

	default:
		fmt.Println("unknown command:", fields[0])
	}

	return true
}

// editDraft prompts for the draft fields, empty input keeps the current
// value, and saves the result.
func editDraft(ctx context.Context, ctl *controller.ListController, stdin *bufio.Scanner) {
	draft := ctl.Draft()
	if draft == nil {
		return
	}

	fmt.Printf("name [%s]: ", draft.Name)
	if stdin.Scan() {
		if text := strings.TrimSpace(stdin.Text()); text != "" {
			draft.Name = text
		}
	}

	fmt.Printf("quantity [%g]: ", draft.Quantity)
	if stdin.Scan() {
		if q, err := strconv.ParseFloat(strings.TrimSpace(stdin.Text()), 64); err == nil {
			draft.Quantity = q
		}
	}

	currentUnit := ""
	if draft.Unit != nil {
		currentUnit = *draft.Unit
	}
	fmt.Printf("unit [%s]: ", currentUnit)
	if stdin.Scan() {
		if text := strings.TrimSpace(stdin.Text()); text != "" {
			draft.Unit = &text
		}
	}

	ctl.SaveEdit(ctx)
}

func itemByIndex(ctl *controller.ListController, fields []string) *domain.ListItem {
	if len(fields) < 2 {
		fmt.Println("usage:", fields[0], "<n>")
		return nil
	}

	n, err := strconv.Atoi(fields[1])
	items := ctl.Items()
	if err != nil || n < 1 || n > len(items) {
		fmt.Println("no such item:", fields[1])
		return nil
	}

	return &items[n-1]
}
