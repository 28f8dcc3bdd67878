package uiactions

import (
	"context"
	"sort"

	"github.com/dukex/uiactions/pkg/models"
	"github.com/dukex/uiactions/pkg/protocol"
)

// ContextMenuTitle is the title of the disambiguation menu.
const ContextMenuTitle = "Options"

// RunFunc executes the action picked from a context menu.
type RunFunc func(ctx context.Context, action protocol.Action) error

type menuEntry struct {
	action    protocol.Action
	group     models.Grouping
	groupRank int
}

// BuildContextMenu builds the menu for actions. Entries are ordered by group
// order, then action order, both descending; ties keep the input order.
// Clicking an entry runs it and then calls closeMenu.
func BuildContextMenu(
	ctx context.Context,
	actions []protocol.Action,
	actionCtx models.ActionContext,
	run RunFunc,
	closeMenu func(),
) *models.ContextMenuPanel {
	entries := make([]menuEntry, 0, len(actions))
	groupRanks := make(map[string]int)

	for _, action := range actions {
		entry := menuEntry{action: action}

		if grouped, ok := action.(protocol.Grouped); ok {
			if grouping := grouped.Grouping(); len(grouping) > 0 {
				entry.group = grouping[0]
			}
		}

		rank, seen := groupRanks[entry.group.ID]
		if !seen {
			rank = len(groupRanks)
			groupRanks[entry.group.ID] = rank
		}

		entry.groupRank = rank
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.group.Order != b.group.Order {
			return a.group.Order > b.group.Order
		}

		if a.groupRank != b.groupRank {
			return a.groupRank < b.groupRank
		}

		return a.action.Order() > b.action.Order()
	})

	panel := &models.ContextMenuPanel{
		Title: ContextMenuTitle,
		Items: make([]models.ContextMenuItem, 0, len(entries)),
	}

	for _, entry := range entries {
		action := entry.action

		// An href that fails to resolve only loses the link preview; the
		// click still goes through run.
		href, _ := action.GetHref(ctx, actionCtx)

		panel.Items = append(panel.Items, models.ContextMenuItem{
			ActionID: action.ID(),
			Name:     action.GetDisplayName(ctx, actionCtx),
			Icon:     action.GetIconType(ctx, actionCtx),
			Href:     href,
			Order:    action.Order(),
			Group:    entry.group.Name,
			OnClick: func(ctx context.Context) error {
				defer closeMenu()

				return run(ctx, action)
			},
		})
	}

	return panel
}
