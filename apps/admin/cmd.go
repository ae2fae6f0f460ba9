package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/studytrack/studytrack/apps/shared"
	"github.com/studytrack/studytrack/core"
	"github.com/studytrack/studytrack/core/account"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	svcs *shared.Services
	out  io.Writer
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  checkcms - check that the CMS answers")
	_, _ = fmt.Fprintln(cli.out, "  token -identifier USERNAME|EMAIL - sign in and print the session token")
	_, _ = fmt.Fprintln(cli.out, "  resolve -identifier USERNAME|EMAIL - sign in and print where the user belongs")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	tokenCmd := flag.NewFlagSet("token", flag.ExitOnError)
	tokenIdentifier := tokenCmd.String("identifier", "", "The user's username or email. The password will be prompted next.")

	resolveCmd := flag.NewFlagSet("resolve", flag.ExitOnError)
	resolveIdentifier := resolveCmd.String("identifier", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "checkcms":
		return cli.checkCMS()
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		sess, err := cli.signIn(tokenCmd, *tokenIdentifier)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(cli.out, sess.JWT)
		return nil
	case "resolve":
		if err := resolveCmd.Parse(args[2:]); err != nil {
			return err
		}
		sess, err := cli.signIn(resolveCmd, *resolveIdentifier)
		if err != nil {
			return err
		}
		return cli.resolve(sess)
	default:
		cli.printUsage()
		return errHelp
	}
}

// signIn prompts for the password of identifier and opens a CMS session.
func (cli *commandLine) signIn(cmd *flag.FlagSet, identifier string) (account.Session, error) {
	identifier = core.CleanString(identifier)
	if identifier == "" {
		cmd.Usage()
		return account.Session{}, errHelp
	}
	_, _ = fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return account.Session{}, err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return account.Session{}, errHelp
	}
	return cli.svcs.Account.SignIn(context.Background(), account.SignIn{Identifier: identifier, Password: string(pwd)})
}

func (cli *commandLine) checkCMS() error {
	res, err := cli.svcs.CMS.Ping(context.Background())
	if err != nil {
		_, _ = fmt.Fprintf(cli.out, "CMS at %q is unreachable after %s\n", res.URL, res.Latency)
		return err
	}
	_, _ = fmt.Fprintf(cli.out, "CMS at %q answered %d in %s\n", res.URL, res.Status, res.Latency)
	return nil
}

func (cli *commandLine) resolve(sess account.Session) error {
	ctx := core.WithAuthToken(context.Background(), sess.JWT)
	res, err := cli.svcs.Resolver.Resolve(ctx, sess.User.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(cli.out, string(data))
	return nil
}
