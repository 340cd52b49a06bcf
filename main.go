package main

import (
	"log"
	"os"

	"github.com/expenseocr/receipt-extraction/client"
	"github.com/expenseocr/receipt-extraction/config"
	"github.com/expenseocr/receipt-extraction/handler"
	"github.com/expenseocr/receipt-extraction/service"

	"github.com/gin-gonic/gin"
)

func main() {
	// Initialize configuration
	cfg := config.LoadConfig()

	// Tesseract v5 reads the data path from the environment
	os.Setenv("TESSDATA_PREFIX", cfg.TesseractDataPath)
	log.Println("TESSDATA_PREFIX set to:", os.Getenv("TESSDATA_PREFIX"))

	// Initialize Tesseract client
	tesseractClient := client.NewTesseractClient(cfg.TesseractDataPath)
	defer tesseractClient.Close()

	// Initialize PDF processor
	pdfProcessor := service.NewPDFProcessor()

	// Initialize service layer
	receiptService := service.NewReceiptService(tesseractClient, pdfProcessor)

	// Initialize handler layer
	receiptHandler := handler.NewReceiptHandler(receiptService)

	// Setup Gin router
	router := gin.Default()

	router.MaxMultipartMemory = cfg.MaxFileSize

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Receipt Field Extraction",
		})
	})

	// API routes
	api := router.Group("/api/v1")
	{
		receipt := api.Group("/receipt")
		{
			receipt.POST("/extract", receiptHandler.ExtractReceipt)
		}
	}

	// Start server
	log.Printf("Starting Receipt Field Extraction Service on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
