package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/lizardjazz1/morning-quiz-bot/internal/config"
	"github.com/lizardjazz1/morning-quiz-bot/internal/models"
	"github.com/lizardjazz1/morning-quiz-bot/internal/security"
)

// Imports quiz questions from an xlsx workbook. One sheet per category,
// columns: question, option 1-4, correct option number (1-based),
// optional explanation.
func main() {
	path := flag.String("file", "questions.xlsx", "path to the xlsx workbook")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config: ", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect database: ", err)
	}

	f, err := excelize.OpenFile(*path)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	totalImported := 0
	totalSkipped := 0

	for _, sheetName := range f.GetSheetList() {
		category := strings.TrimSpace(sheetName)
		if !security.ValidateCategoryName(category) {
			fmt.Printf("Skipping sheet with invalid category name: %q\n", sheetName)
			continue
		}

		fmt.Printf("Importing sheet: %s\n", category)
		rows, err := f.GetRows(sheetName)
		if err != nil {
			fmt.Printf("Error reading sheet %s: %v\n", sheetName, err)
			continue
		}

		for i, row := range rows {
			if i == 0 || len(row) < 6 { // Skip header or invalid rows
				continue
			}

			// row[0]: question text
			// row[1..4]: options
			// row[5]: correct option number, 1-based
			// row[6]: explanation (optional)

			text := security.SanitizeQuestionText(row[0])
			if text == "" {
				totalSkipped++
				continue
			}

			var options []string
			for _, cell := range row[1:5] {
				opt := security.SanitizeQuestionText(cell)
				if opt != "" {
					options = append(options, opt)
				}
			}
			if len(options) < models.MinPromptOptions {
				fmt.Printf("Row %d: not enough options, skipping\n", i+1)
				totalSkipped++
				continue
			}

			correct, err := strconv.Atoi(strings.TrimSpace(row[5]))
			if err != nil || correct < 1 || correct > len(options) {
				fmt.Printf("Row %d: invalid correct option %q, skipping\n", i+1, row[5])
				totalSkipped++
				continue
			}

			explanation := ""
			if len(row) > 6 {
				explanation = security.SanitizeQuestionText(row[6])
			}

			optionsJSON, err := json.Marshal(options)
			if err != nil {
				fmt.Printf("Row %d: %v, skipping\n", i+1, err)
				totalSkipped++
				continue
			}

			question := models.Question{
				Text:         text,
				Options:      string(optionsJSON),
				CorrectIndex: correct - 1,
				Category:     category,
				Explanation:  explanation,
			}

			if err := db.Create(&question).Error; err != nil {
				fmt.Printf("Error creating question in row %d: %v\n", i+1, err)
				totalSkipped++
			} else {
				totalImported++
			}
		}
	}

	fmt.Printf("Imported %d questions, skipped %d rows.\n", totalImported, totalSkipped)
}
