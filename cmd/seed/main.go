package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/storage/models"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/internal/storage/sqlite"
	"github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/config"
	appLogger "github.com/ayushvishnoipro/EXCEL-MOCK-Interviewer/pkg/logger"
)

// bankQuestions is the baseline set the interviewer falls back to when AI
// generation is unavailable. Seeding is idempotent: question text is unique
// in the schema and re-seeding updates in place.
var bankQuestions = []models.BankQuestion{
	{
		Text:        "Explain the difference between VLOOKUP and INDEX/MATCH functions. When would you use one over the other?",
		ModelAnswer: "VLOOKUP searches in the first column and returns from specified column. INDEX/MATCH is more flexible - can look left, better performance, dynamic columns. Use VLOOKUP for simple right lookups, INDEX/MATCH for complex scenarios.",
		Difficulty:  1,
		Kind:        "conceptual",
	},
	{
		Text:        "How would you create a pivot table to analyze sales data by region and month?",
		ModelAnswer: "Select data > Insert Pivot Table. Drag Date to Rows (group by month), Region to Columns, Sales to Values. Add slicers for filtering. Format as currency and add conditional formatting.",
		Difficulty:  2,
		Kind:        "conceptual",
	},
	{
		Text:        "What are common Excel errors and how do you handle them?",
		ModelAnswer: "Common errors: #N/A (IFERROR, IFNA), #VALUE! (data type validation), #REF! (INDIRECT), #DIV/0! (IF checks). Use error handling functions and data validation.",
		Difficulty:  3,
		Kind:        "conceptual",
	},
	{
		Text:        "Describe how to set up data validation with dependent dropdowns.",
		ModelAnswer: "Create named ranges or tables for lists. Use INDIRECT function for dependent lists. Set data validation to List with formula. Use conditional formatting for visual feedback.",
		Difficulty:  4,
		Kind:        "conceptual",
	},
	{
		Text:        "How would you use Power Query to clean messy data?",
		ModelAnswer: "Data > Get Data to import. Remove duplicates, handle nulls, fix data types. Use transformations like split columns, merge queries, append data. Create reproducible refresh process.",
		Difficulty:  5,
		Kind:        "conceptual",
	},
	{
		Text:        "Design an automated reporting system with Excel and VBA.",
		ModelAnswer: "Use Power Query for data refresh, dynamic ranges, PivotTables. VBA for automation: Workbook_Open events, scheduled refresh, email automation with Outlook integration. Include error handling.",
		Difficulty:  6,
		Kind:        "conceptual",
	},
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, "console", "stdout")
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	client, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer client.Close()

	if err := client.InitSchema(); err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	for i := range bankQuestions {
		if err := client.InsertBankQuestion(&bankQuestions[i]); err != nil {
			appLogger.Fatal("Failed to seed question",
				zap.String("question", bankQuestions[i].Text),
				zap.Error(err),
			)
		}
	}

	count, err := client.CountBankQuestions()
	if err != nil {
		appLogger.Fatal("Failed to count bank questions", zap.Error(err))
	}

	appLogger.Info("Question bank seeded",
		zap.Int("inserted", len(bankQuestions)),
		zap.Int("total", count),
	)
}
