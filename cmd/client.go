package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/urfave/cli/v2"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tokenfaucet/faucet-connector/connector/client"
	"github.com/tokenfaucet/faucet-connector/connector/session"
	"github.com/tokenfaucet/faucet-connector/fc-service/eth"
)

var (
	endpointFlag = &cli.StringFlag{
		Name:    "endpoint",
		Usage:   "RPC endpoint of a running connector",
		Value:   "http://127.0.0.1:8545",
		EnvVars: []string{"FAUCET_CONNECTOR_ENDPOINT"},
	}
	qrFlag = &cli.BoolFlag{
		Name:  "qr",
		Usage: "Print the connected account as a QR code",
	}
	tokenFlag = &cli.StringFlag{
		Name:  "token",
		Usage: "Token address. The selected token is used when omitted.",
	}
)

type clientAction func(ctx *cli.Context, cl *client.ConnectorClient) error

func withClient(fn clientAction) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		cl, err := client.Dial(ctx.Context, ctx.String(endpointFlag.Name))
		if err != nil {
			return fmt.Errorf("failed to dial connector: %w", err)
		}
		defer cl.Close()
		return fn(ctx, cl)
	}
}

func clientCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "session",
			Usage:  "Show the wallet session",
			Flags:  []cli.Flag{endpointFlag, qrFlag},
			Action: withClient(showSession),
		},
		{
			Name:   "connect",
			Usage:  "Switch the wallet to the target network and request account access",
			Flags:  []cli.Flag{endpointFlag},
			Action: withClient(connect),
		},
		{
			Name:   "tokens",
			Usage:  "List the faucet tokens",
			Flags:  []cli.Flag{endpointFlag},
			Action: withClient(listTokens),
		},
		{
			Name:      "select",
			Usage:     "Select a token, and optionally an amount",
			ArgsUsage: "<token> [amount]",
			Flags:     []cli.Flag{endpointFlag},
			Action:    withClient(selectToken),
		},
		{
			Name:   "watch-asset",
			Usage:  "Ask the wallet to track the token",
			Flags:  []cli.Flag{endpointFlag, tokenFlag},
			Action: withClient(watchAsset),
		},
		{
			Name:   "request-token",
			Usage:  "Request test tokens from the faucet contract",
			Flags:  []cli.Flag{endpointFlag, tokenFlag},
			Action: withClient(requestToken),
		},
		{
			Name:   "balance",
			Usage:  "Show the faucet balance of the token",
			Flags:  []cli.Flag{endpointFlag, tokenFlag},
			Action: withClient(tokenBalance),
		},
	}
}

func statusString(st session.Status) string {
	switch st {
	case session.StatusConnectedWithAccounts:
		return color.GreenString(st.String())
	case session.StatusConnectedEmpty:
		return color.YellowString(st.String())
	default:
		return color.RedString(st.String())
	}
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	return table
}

// formatAccounts lists the shortened accounts, one per line.
func formatAccounts(accounts []common.Address) string {
	out := make([]string, len(accounts))
	for i, a := range accounts {
		out[i] = eth.FormatAddress(a)
	}
	return strings.Join(out, "\n")
}

func showSession(ctx *cli.Context, cl *client.ConnectorClient) error {
	status, err := cl.Status(ctx.Context)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}
	sess, err := cl.Session(ctx.Context)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	net, err := cl.Network(ctx.Context)
	if err != nil {
		return fmt.Errorf("failed to get network: %w", err)
	}
	url, err := cl.AccountURL(ctx.Context)
	if err != nil {
		return fmt.Errorf("failed to get account url: %w", err)
	}

	w := ctx.App.Writer
	chain := sess.ChainID.String()
	if sess.ChainID != net.HexChainID() {
		chain = color.RedString("%s (target %s)", chain, net.HexChainID())
	}
	table := newTable(w, "Field", "Value")
	table.Append([]string{"Status", statusString(status)})
	table.Append([]string{"Accounts", formatAccounts(sess.Accounts)})
	table.Append([]string{"Balance", sess.Balance + " " + net.NativeCurrency.Symbol})
	table.Append([]string{"Chain", chain})
	table.Append([]string{"Explorer", url})
	table.Render()

	account, ok := sess.Account()
	if ctx.Bool(qrFlag.Name) && ok {
		q, err := qrcode.New(account.Hex(), qrcode.Medium)
		if err != nil {
			return fmt.Errorf("failed to encode account: %w", err)
		}
		_, _ = fmt.Fprint(w, q.ToSmallString(false))
	}
	return nil
}

func connect(ctx *cli.Context, cl *client.ConnectorClient) error {
	sess, err := cl.Connect(ctx.Context)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	account, _ := sess.Account()
	_, _ = fmt.Fprintf(ctx.App.Writer, "%s %s on chain %s, balance %s\n",
		color.GreenString("connected"), account.Hex(), sess.ChainID, sess.Balance)
	return nil
}

func listTokens(ctx *cli.Context, cl *client.ConnectorClient) error {
	tokens, err := cl.Tokens(ctx.Context)
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}
	sel, err := cl.Selection(ctx.Context)
	if err != nil {
		return fmt.Errorf("failed to get selection: %w", err)
	}
	table := newTable(ctx.App.Writer, "#", "Token", "Selected")
	for i, tok := range tokens {
		selected := ""
		if strings.EqualFold(sel.Token, tok.Hex()) {
			selected = color.GreenString("*")
		}
		table.Append([]string{fmt.Sprint(i), tok.Hex(), selected})
	}
	table.Render()
	return nil
}

func selectToken(ctx *cli.Context, cl *client.ConnectorClient) error {
	if ctx.NArg() < 1 {
		return fmt.Errorf("expected a token argument")
	}
	if err := cl.SelectToken(ctx.Context, ctx.Args().Get(0)); err != nil {
		return fmt.Errorf("failed to select token: %w", err)
	}
	if ctx.NArg() > 1 {
		ok, err := cl.SetTokenAmount(ctx.Context, ctx.Args().Get(1))
		if err != nil {
			return fmt.Errorf("failed to set amount: %w", err)
		}
		if !ok {
			_, _ = fmt.Fprintln(ctx.App.ErrWriter, color.YellowString("ignored invalid amount %q", ctx.Args().Get(1)))
		}
	}
	sel, err := cl.Selection(ctx.Context)
	if err != nil {
		return fmt.Errorf("failed to get selection: %w", err)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "selected %s, amount %d\n", sel.Token, sel.Amount)
	return nil
}

func watchAsset(ctx *cli.Context, cl *client.ConnectorClient) error {
	accepted, err := cl.WatchAsset(ctx.Context, ctx.String(tokenFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to watch asset: %w", err)
	}
	if accepted {
		_, _ = fmt.Fprintln(ctx.App.Writer, color.GreenString("asset added to wallet"))
	} else {
		_, _ = fmt.Fprintln(ctx.App.Writer, color.YellowString("wallet declined the asset"))
	}
	return nil
}

func requestToken(ctx *cli.Context, cl *client.ConnectorClient) error {
	hash, err := cl.RequestToken(ctx.Context, ctx.String(tokenFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to request token: %w", err)
	}
	_, _ = fmt.Fprintf(ctx.App.Writer, "submitted %s\n", hash.Hex())
	return nil
}

func tokenBalance(ctx *cli.Context, cl *client.ConnectorClient) error {
	bal, err := cl.TokenBalance(ctx.Context, ctx.String(tokenFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to get token balance: %w", err)
	}
	_, _ = fmt.Fprintln(ctx.App.Writer, bal.String())
	return nil
}
