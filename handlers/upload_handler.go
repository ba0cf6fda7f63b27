package handlers

import (
	"net/url"
	"strconv"
	"time"

	config "github.com/AleDet01/smartdeck-sub000/configs"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v2"
)

const avatarFolder = "smartdeck_avatars"

// signAvatarUpload produces the signature and timestamp the browser needs to
// upload into the avatar folder without the API secret ever leaving the server.
func signAvatarUpload(secret string) (signature string, timestamp int64, err error) {
	params, err := api.StructToParams(uploader.UploadParams{Folder: avatarFolder})
	if err != nil {
		return "", 0, err
	}

	timestamp = time.Now().Unix()
	params.Set("timestamp", strconv.FormatInt(timestamp, 10))

	signature, err = api.SignParameters(params, secret)
	return signature, timestamp, err
}

// GenerateUploadSignature lets the frontend upload a profile picture straight
// to Cloudinary with a short-lived server-issued signature.
func GenerateUploadSignature(c *fiber.Ctx) error {
	cloudinaryURL := config.Config("CLOUDINARY_URL")
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to initialize Cloudinary"})
	}

	parsedURL, err := url.Parse(cloudinaryURL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to parse Cloudinary URL"})
	}
	secret, _ := parsedURL.User.Password()

	signature, timestamp, err := signAvatarUpload(secret)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sign upload params"})
	}

	return c.JSON(fiber.Map{
		"signature": signature,
		"timestamp": timestamp,
		"api_key":   cld.Config.Cloud.APIKey,
		"folder":    avatarFolder,
	})
}
