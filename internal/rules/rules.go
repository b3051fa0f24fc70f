// Package rules derives manager tasks from the current state of the
// restaurant: stock levels, menu hygiene, prep buffers and sales trends.
// Generation is pure and idempotent; a task whose title already exists in
// an open or in-progress state is never emitted again.
package rules

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fyra/backend/internal/domain"
)

const (
	salesDipLookbackDays = 7
	salesDipMinSales     = 3
	salesDipRatio        = 0.80
)

type Input struct {
	MenuItems   []domain.MenuItem
	Ingredients []domain.Ingredient
	PrepTasks   []domain.PrepTask
	Sales       []domain.Sale
	Existing    []domain.ManagerTask
	Now         time.Time
}

// Generate evaluates every rule against the input and returns the tasks
// that are not already present. IDs and timestamps are left for the store
// to assign.
func Generate(in Input) []domain.ManagerTask {
	active := make(map[string]struct{}, len(in.Existing))
	for _, task := range in.Existing {
		if task.Status == domain.TaskStatusOpen || task.Status == domain.TaskStatusInProgress {
			active[task.Title] = struct{}{}
		}
	}

	var candidates []domain.ManagerTask
	if task, ok := missingRecipes(in.MenuItems); ok {
		candidates = append(candidates, task)
	}
	candidates = append(candidates, lowStock(in.Ingredients)...)
	candidates = append(candidates, prepBelowPar(in.PrepTasks)...)
	if task, ok := salesDip(in.Sales, in.Now); ok {
		candidates = append(candidates, task)
	}

	var out []domain.ManagerTask
	for _, task := range candidates {
		if _, exists := active[task.Title]; exists {
			continue
		}
		task.Status = domain.TaskStatusOpen
		task.Source = domain.TaskSourceRule
		out = append(out, task)
	}
	return out
}

func missingRecipes(items []domain.MenuItem) (domain.ManagerTask, bool) {
	var names []string
	for _, item := range items {
		if item.Deleted {
			continue
		}
		if len(item.Recipe) == 0 {
			names = append(names, item.Name)
		}
	}
	if len(names) == 0 {
		return domain.ManagerTask{}, false
	}
	sort.Strings(names)
	return domain.ManagerTask{
		Title:       "Add recipes to menu items",
		Description: fmt.Sprintf("%d menu item(s) have no recipe, so sales of them deduct no stock and report zero cost: %s", len(names), strings.Join(names, ", ")),
		Category:    "menu",
		Priority:    domain.TaskPriorityMedium,
		Evidence:    names,
	}, true
}

func lowStock(ings []domain.Ingredient) []domain.ManagerTask {
	var tasks []domain.ManagerTask
	for _, ing := range ings {
		if ing.Deleted || ing.MinThreshold <= 0 {
			continue
		}
		if ing.CurrentStock > ing.MinThreshold {
			continue
		}
		priority := domain.TaskPriorityHigh
		desc := fmt.Sprintf("%s is at %.2f %s, at or below the minimum of %.2f %s.", ing.Name, ing.CurrentStock, ing.Unit, ing.MinThreshold, ing.Unit)
		if ing.CurrentStock <= 0 {
			desc = fmt.Sprintf("%s is out of stock (%.2f %s).", ing.Name, ing.CurrentStock, ing.Unit)
		}
		tasks = append(tasks, domain.ManagerTask{
			Title:       "Low stock: " + ing.Name,
			Description: desc,
			Category:    "inventory",
			Priority:    priority,
			Evidence:    []string{ing.ID},
		})
	}
	return tasks
}

func prepBelowPar(preps []domain.PrepTask) []domain.ManagerTask {
	var tasks []domain.ManagerTask
	for _, prep := range preps {
		if prep.ParLevel <= 0 {
			continue
		}
		if prep.OnHand >= prep.ParLevel/2 {
			continue
		}
		tasks = append(tasks, domain.ManagerTask{
			Title:       "Prep needed: " + prep.Name,
			Description: fmt.Sprintf("%s is at %.2f of a %.2f %s par level at the %s station.", prep.Name, prep.OnHand, prep.ParLevel, prep.Unit, prep.Station),
			Category:    "prep",
			Priority:    domain.TaskPriorityHigh,
			Evidence:    []string{prep.ID},
		})
	}
	return tasks
}

// salesDip fires when today's revenue drops below 80% of the daily average
// of the trailing seven days. It stays quiet with fewer than four sales in
// the window or when either figure is zero.
func salesDip(sales []domain.Sale, now time.Time) (domain.ManagerTask, bool) {
	today := now.Truncate(24 * time.Hour)
	windowStart := today.AddDate(0, 0, -salesDipLookbackDays)

	var windowRevenue, todayRevenue int64
	windowCount := 0
	for _, sale := range sales {
		if sale.Status != domain.SaleStatusCompleted {
			continue
		}
		day := sale.CreatedAt.Truncate(24 * time.Hour)
		switch {
		case day.Equal(today):
			todayRevenue += sale.TotalAmount
		case !day.Before(windowStart) && day.Before(today):
			windowRevenue += sale.TotalAmount
			windowCount++
		}
	}
	if windowCount <= salesDipMinSales {
		return domain.ManagerTask{}, false
	}
	if windowRevenue <= 0 || todayRevenue <= 0 {
		return domain.ManagerTask{}, false
	}
	dailyAvg := float64(windowRevenue) / float64(salesDipLookbackDays)
	if float64(todayRevenue) >= salesDipRatio*dailyAvg {
		return domain.ManagerTask{}, false
	}
	return domain.ManagerTask{
		Title:       "Investigate today's sales dip",
		Description: fmt.Sprintf("Today's revenue %d is below 80%% of the trailing 7-day daily average (%.0f).", todayRevenue, dailyAvg),
		Category:    "sales",
		Priority:    domain.TaskPriorityMedium,
	}, true
}
