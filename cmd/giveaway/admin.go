package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"
)

type Block struct {
	IP string `long:"ip" description:"address to block" required:"true"`
}

func (x *Block) Execute(_ []string) error {
	a, err := newApp(opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.block(context.Background(), os.Stdout, x.IP)
}

func (a *app) block(ctx context.Context, out io.Writer, ip string) error {
	id, err := a.svc.BlockIP(ctx, ip)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "blocked %s (restriction %s)\n", ip, id)
	return err
}

type Unblock struct {
	ID string `long:"id" description:"restriction record id" required:"true"`
}

func (x *Unblock) Execute(_ []string) error {
	a, err := newApp(opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.unblock(context.Background(), os.Stdout, x.ID)
}

func (a *app) unblock(ctx context.Context, out io.Writer, id string) error {
	if err := a.svc.Unblock(ctx, id); err != nil {
		return fmt.Errorf("unblock %s: %w", id, err)
	}
	_, err := fmt.Fprintf(out, "removed restriction %s\n", id)
	return err
}

type Restrictions struct{}

func (x *Restrictions) Execute(_ []string) error {
	a, err := newApp(opts.Config)
	if err != nil {
		return err
	}
	defer a.Close()
	return a.listRestrictions(context.Background(), os.Stdout)
}

func (a *app) listRestrictions(ctx context.Context, out io.Writer) error {
	rs, err := a.svc.Restrictions(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tIP\tGIVEAWAY\tLAST ENTRY\tSTATUS\tDAYS LEFT")
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\n",
			r.ID, r.IPAddress, r.GiveawayID,
			r.LastEntryDate.Local().Format(time.DateTime),
			r.Status, r.DaysRemaining)
	}
	return tw.Flush()
}
