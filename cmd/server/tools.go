package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/MelvinDY/SGM/internal/catalog"
	"github.com/MelvinDY/SGM/internal/gold"
	"github.com/MelvinDY/SGM/internal/report"
	"github.com/MelvinDY/SGM/internal/repository"
)

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Print the current gold price",
	Run: func(cmd *cobra.Command, args []string) {
		p := newGoldService().CurrentPrice(cmd.Context())
		fmt.Printf("%s/g  %s/oz  (%s)\n", gold.FormatMajor(p.PricePerGram), gold.FormatMajor(p.PricePerOunce), p.Kind)
		fmt.Printf("change %s (%+.2f%%)\n", gold.FormatMajor(p.Change), p.ChangePercent)
		if cfg.USDIDRRate > 0 {
			fmt.Printf("reference %s/g\n", gold.FormatMinor(p.PricePerGram/cfg.USDIDRRate))
		}
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Compare today's price with past horizons",
	Run: func(cmd *cobra.Command, args []string) {
		h := newGoldService().PriceHistory(cmd.Context())
		fmt.Printf("%-10s %18s  %s\n", "today", gold.FormatMajor(h.Today.PricePerGram), h.Today.Kind)
		for _, c := range h.Compare() {
			if c.Price == nil {
				fmt.Printf("%-10s %18s\n", c.Horizon.Name, "n/a")
				continue
			}
			pct := "n/a"
			if c.Change.Percent != nil {
				pct = fmt.Sprintf("%+.2f%%", *c.Change.Percent)
			}
			fmt.Printf("%-10s %18s  %s  %s\n", c.Horizon.Name, gold.FormatMajor(c.Price.PricePerGram), pct, c.Price.Kind)
		}
	},
}

var changeCmd = &cobra.Command{
	Use:   "change",
	Short: "Compute the change between two per-gram prices",
	RunE: func(cmd *cobra.Command, args []string) error {
		current, _ := cmd.Flags().GetFloat64("current")
		var previous *float64
		if cmd.Flags().Changed("previous") {
			v, _ := cmd.Flags().GetFloat64("previous")
			previous = &v
		}
		c := gold.CalculateChange(current, previous)
		pct := "n/a"
		if c.Percent != nil {
			pct = fmt.Sprintf("%+.2f%%", *c.Percent)
		}
		fmt.Printf("%s (%s)\n", gold.FormatMajor(c.Delta), pct)
		return nil
	},
}

var classifyCmd = &cobra.Command{
	Use:   "classify <caption>",
	Short: "Show the category and product name derived from a caption",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		caption := strings.Join(args, " ")
		category := "none"
		if c, ok := catalog.DetectCategory(caption); ok {
			category = string(c)
		}
		fmt.Printf("category: %s\nname:     %s\n", category, catalog.SuggestName(caption))
	},
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import new Instagram posts as draft products",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg.DBEnabled = true
		pool, err := connectDB(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		instagram := newInstagramClient()
		if !instagram.Configured() {
			return errors.New("instagram is not configured; set INSTAGRAM_ACCESS_TOKEN and INSTAGRAM_BUSINESS_ID or INSTAGRAM_MOCK_MODE")
		}
		im := catalog.NewImporter(instagram, repository.NewProductRepo(pool), repository.NewSyncLogRepo(pool), log)
		res, err := im.Sync(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("fetched %d, added %d, already imported %d, uncategorized %d, failed %d (%s)\n",
			res.Fetched, res.Added, res.Existing, res.Uncategorized, res.Failed, res.Status)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored prices for a range of market days to an xlsx file",
	RunE: func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		out, _ := cmd.Flags().GetString("out")

		start, err := repository.MarketDayStart(from)
		if err != nil {
			return fmt.Errorf("--from: %w", err)
		}
		toStart, err := repository.MarketDayStart(to)
		if err != nil {
			return fmt.Errorf("--to: %w", err)
		}

		cfg.DBEnabled = true
		pool, err := connectDB(cmd.Context())
		if err != nil {
			return err
		}
		defer pool.Close()

		points, err := repository.NewPriceRepo(pool).GetRange(cmd.Context(), start, toStart.AddDate(0, 0, 1))
		if err != nil {
			return err
		}

		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := report.WritePrices(f, points); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("wrote %d prices to %s\n", len(points), out)
		return nil
	},
}

func init() {
	today := repository.MarketDayNow()
	exportCmd.Flags().String("from", repository.MarketDay(time.Now().AddDate(0, 0, -29)), "first market day (YYYY-MM-DD)")
	exportCmd.Flags().String("to", today, "last market day (YYYY-MM-DD)")
	exportCmd.Flags().String("out", "harga-emas.xlsx", "output file")

	changeCmd.Flags().Float64("current", 0, "current per-gram price")
	changeCmd.Flags().Float64("previous", 0, "previous per-gram price (omit for no prior data)")
	_ = changeCmd.MarkFlagRequired("current")
}
