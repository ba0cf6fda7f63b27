package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	config "github.com/AleDet01/smartdeck-sub000/configs"
	"github.com/AleDet01/smartdeck-sub000/models"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// GenerateStudyReport renders a user's general statistics to a PDF and
// uploads it to Cloudinary, returning the secure URL of the document.
func GenerateStudyReport(ctx context.Context, user models.User, stats *GeneralStatistics) (string, error) {
	htmlData, err := renderReportHTML(user, stats)
	if err != nil {
		return "", fmt.Errorf("failed to render report HTML: %w", err)
	}

	pdfBytes, err := generatePDFFromHTML(ctx, htmlData)
	if err != nil {
		return "", fmt.Errorf("failed to render PDF: %w", err)
	}

	reportURL, err := uploadReportToCloudinary(pdfBytes, user.ID.String())
	if err != nil {
		return "", fmt.Errorf("failed to upload report: %w", err)
	}

	return reportURL, nil
}

func renderReportHTML(user models.User, stats *GeneralStatistics) (string, error) {
	tmpl, err := template.ParseFiles("templates/report.html")
	if err != nil {
		return "", err
	}

	data := struct {
		FullName    string
		GeneratedAt string
		Stats       *GeneralStatistics
	}{
		FullName:    user.FullName,
		GeneratedAt: time.Now().Format("January 2, 2006"),
		Stats:       stats,
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(parent context.Context, htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(parent)
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadReportToCloudinary(fileBytes []byte, userID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("reports/%s_%s", userID, uuid.New().String()),
		Folder:       "smartdeck_reports",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
