package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kazkleen/crm/internal/aggregate"
	"github.com/kazkleen/crm/internal/session"
	"github.com/kazkleen/crm/internal/storage"
)

func (h *Handler) HandleAddOrder(ctx context.Context, sess session.Session, args []string) error {
	order := storage.Order{
		Date:        h.timeNow().UTC().Format(storage.DateLayout),
		SubmittedBy: sess.Username,
	}

	for i := 0; i < len(args); i++ {
		if i+1 >= len(args) {
			return fmt.Errorf("missing value for %s: %w", args[i], ErrUsage)
		}
		value := args[i+1]
		switch args[i] {
		case "--client":
			order.ClientName = value
		case "--date":
			order.Date = value
		case "--item":
			floor, room, item, err := parseItem(value)
			if err != nil {
				return err
			}
			storage.AddItem(&order, floor, room, item)
		default:
			return fmt.Errorf("unknown flag %s: %w", args[i], ErrUsage)
		}
		i++
	}

	order = storage.NormalizeOrder(order)
	if err := storage.ValidateOrder(order); err != nil {
		return err
	}

	created, err := h.orders.Create(ctx, order)
	if err != nil {
		return err
	}
	h.printf("Order #%d submitted successfully!\n", created.ID)
	return nil
}

// parseItem reads "Floor|Room|Service|Qty".
func parseItem(value string) (string, string, storage.ServiceItem, error) {
	parts := strings.Split(value, "|")
	if len(parts) != 4 {
		return "", "", storage.ServiceItem{}, fmt.Errorf("item %q must be Floor|Room|Service|Qty: %w", value, ErrUsage)
	}
	qty, err := strconv.Atoi(strings.TrimSpace(parts[3]))
	if err != nil {
		return "", "", storage.ServiceItem{}, fmt.Errorf("item %q: invalid quantity: %w", value, ErrUsage)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]),
		storage.ServiceItem{Service: strings.TrimSpace(parts[2]), Quantity: qty}, nil
}

func (h *Handler) HandleListOrders(ctx context.Context, _ session.Session, args []string) error {
	var lastN int
	var status storage.Status

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--last":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for --last: %w", ErrUsage)
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid value for --last: %w", ErrUsage)
			}
			lastN = n
			i++
		case "--status":
			if i+1 >= len(args) {
				return fmt.Errorf("missing value for --status: %w", ErrUsage)
			}
			status = storage.Status(args[i+1])
			if status != storage.StatusActive && status != storage.StatusCompleted {
				return fmt.Errorf("invalid value for --status: %w", ErrUsage)
			}
			i++
		default:
			return fmt.Errorf("unknown flag %s: %w", args[i], ErrUsage)
		}
	}

	orders, err := h.orders.List(ctx)
	if err != nil {
		return err
	}

	var filtered []storage.Order
	for _, o := range orders {
		if status == "" || o.Status() == status {
			filtered = append(filtered, o)
		}
	}
	filtered = aggregate.Recent(filtered, lastN)

	if len(filtered) == 0 {
		h.println("No orders found")
		return nil
	}

	h.println("Orders:")
	for _, o := range filtered {
		totals := aggregate.OrderTotals(o)
		h.printf("- #%d | %s | %s | %d floors, %d rooms, %d items | [%s] | by %s\n",
			o.ID, o.Date, o.ClientName, totals.Floors, totals.Rooms, totals.Quantity, o.Status(), o.SubmittedBy)
	}
	return nil
}

func (h *Handler) HandleShow(ctx context.Context, _ session.Session, args []string) error {
	id, err := orderIDArg(args, 1)
	if err != nil {
		return err
	}
	o, err := h.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}

	h.printf("Order #%d\n", o.ID)
	h.printf("Client:       %s\n", o.ClientName)
	h.printf("Date:         %s\n", o.Date)
	h.printf("Submitted by: %s\n", o.SubmittedBy)
	h.printf("Status:       %s\n", o.Status())
	if o.Completion != nil {
		h.printf("Completed:    %s by %s\n", o.Completion.Date, o.Completion.By)
	}
	for _, f := range o.Floors {
		h.printf("%s\n", f.Name)
		for _, r := range f.Rooms {
			h.printf("  %s\n", r.Name)
			for _, item := range r.Items {
				h.printf("    - %s x %d\n", item.Service, item.Quantity)
			}
		}
	}
	return nil
}

func (h *Handler) HandleComplete(ctx context.Context, sess session.Session, args []string) error {
	id, err := orderIDArg(args, 1)
	if err != nil {
		return err
	}
	o, err := h.orders.Complete(ctx, id, sess.Username)
	if err != nil {
		return err
	}
	h.printf("Order #%d completed on %s by %s\n", o.ID, o.Completion.Date, o.Completion.By)
	return nil
}

func (h *Handler) HandleDelete(ctx context.Context, _ session.Session, args []string) error {
	id, err := orderIDArg(args, 1)
	if err != nil {
		return err
	}
	deleted, err := h.orders.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("order %d: %w", id, storage.ErrNotFound)
	}
	h.println("Order deleted successfully!")
	return nil
}

func (h *Handler) HandleStats(ctx context.Context, _ session.Session, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	orders, err := h.orders.List(ctx)
	if err != nil {
		return err
	}
	d := aggregate.BuildDashboard(orders)

	h.printf("Total orders:      %d\n", d.Stats.TotalOrders)
	h.printf("Completed orders:  %d\n", d.Stats.CompletedOrders)
	h.printf("Services rendered: %d\n", d.Stats.TotalServiceQuantity)
	h.printf("Unique clients:    %d\n", d.Stats.UniqueClientCount)

	if len(d.Services) > 0 {
		h.println("Services:")
		for _, p := range d.Services {
			h.printf("  %-22s %d\n", p.Label, p.Value)
		}
	}
	if len(d.Dates) > 0 {
		h.println("Orders per date:")
		for _, p := range d.Dates {
			h.printf("  %s %d\n", p.Label, p.Value)
		}
	}
	return nil
}

func orderIDArg(args []string, want int) (int, error) {
	if len(args) < 1 || len(args) > want {
		return 0, ErrUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id %q: %w", args[0], ErrUsage)
	}
	return id, nil
}
