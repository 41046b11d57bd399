package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/NicolasHaas/goshop/pkg/client"
	"github.com/NicolasHaas/goshop/pkg/order"
)

const wizardHelp = `commands:
  next                 go to the next step
  back                 go to the previous step
  list                 reload and show your addresses
  select <id>          choose a delivery address
  set <field> <value>  fill in the new address (fields: name, contactNumber, street, city, state, landmark, zipcode)
  save                 save the new address
  confirm              place the order
  quit                 leave without ordering`

// runWizard drives w from line commands read from in until the order is
// placed, the user quits or in is exhausted.
func runWizard(ctx context.Context, w *order.Wizard, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	render(out, w)

	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		cmd, arg, _ := strings.Cut(strings.TrimSpace(sc.Text()), " ")
		arg = strings.TrimSpace(arg)

		var err error
		switch cmd {
		case "":
			continue
		case "next":
			if w.Step() == order.StepConfirm {
				fmt.Fprintln(out, "Type confirm to place the order.")
				continue
			}
			err = w.Next(ctx)
		case "back":
			w.Previous(ctx)
		case "list":
			err = w.FetchAddresses(ctx)
		case "select":
			err = w.SelectAddress(arg)
		case "set":
			field, value, _ := strings.Cut(arg, " ")
			if err := w.SetDraftField(field, strings.TrimSpace(value)); err != nil {
				fmt.Fprintf(out, "Unknown field %q. Type help.\n", field)
			}
			continue
		case "save":
			created, serr := w.SaveAddress(ctx)
			if serr == nil {
				fmt.Fprintf(out, "Saved address %s (%s).\n", created.ID, created.Label())
			}
			err = serr
		case "confirm":
			placed, cerr := w.Confirm(ctx)
			if cerr == nil {
				fmt.Fprintf(out, "Order placed (id %s). Total %s.\n", placed.ID, w.TotalPrice().StringFixed(2))
				return nil
			}
			err = cerr
		case "help":
			fmt.Fprintln(out, wizardHelp)
			continue
		case "quit", "exit":
			fmt.Fprintln(out, "Order cancelled.")
			return nil
		default:
			fmt.Fprintf(out, "Unknown command %q. Type help.\n", cmd)
			continue
		}

		if err != nil {
			fmt.Fprintln(out, wizardError(w, err))
		}
		render(out, w)
	}
}

func wizardError(w *order.Wizard, err error) string {
	switch {
	case errors.Is(err, order.ErrWrongStep):
		return "That is not available at this step."
	case errors.Is(err, order.ErrBusy):
		return "Please wait for the current request to finish."
	case errors.Is(err, order.ErrStale):
		return "Addresses were refreshed in the meantime."
	}
	if msg := w.ErrorMessage(); msg != "" {
		return msg
	}
	return client.UserMessage(err)
}

func render(out io.Writer, w *order.Wizard) {
	step := w.Step()
	var parts []string
	for _, s := range order.Steps {
		name := s.String()
		if s == step {
			name = "[" + name + "]"
		}
		parts = append(parts, name)
	}
	fmt.Fprintln(out, strings.Join(parts, " -> "))

	p := w.Product()
	switch step {
	case order.StepItems:
		fmt.Fprintf(out, "  %s x %d = %s\n", p.Name, w.Quantity(), w.TotalPrice().StringFixed(2))
	case order.StepAddress:
		addrs := w.Addresses()
		if len(addrs) == 0 {
			fmt.Fprintln(out, "  No saved addresses. Use set/save to add one.")
		}
		selected := w.SelectedAddressID()
		for _, a := range addrs {
			mark := " "
			if a.ID == selected {
				mark = "*"
			}
			fmt.Fprintf(out, "  %s %s  %s\n", mark, a.ID, a.Label())
		}
	case order.StepConfirm:
		fmt.Fprintf(out, "  %s x %d\n", p.Name, w.Quantity())
		if a, ok := w.SelectedAddress(); ok {
			fmt.Fprintf(out, "  deliver to: %s\n", a.Label())
		}
		fmt.Fprintf(out, "  total: %s\n", w.TotalPrice().StringFixed(2))
	}
	fmt.Fprintf(out, "Type %s to continue, help for more.\n", strings.ToLower(step.NextLabel()))
}
