package channel

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"ballstore.GO/api"
	"ballstore.GO/config"
	"ballstore.GO/core/apperr"
	entity "ballstore.GO/model/entity"
	"ballstore.GO/service/channel"
	"ballstore.GO/service/marketplace"
)

func init() {
	api.RegisterModule(RegisterChannelRoutes)
}

type accountBody struct {
	Platform string `json:"platform"`
	Label    string `json:"label"`
	Active   *bool  `json:"active"`
}

type importBody struct {
	Days int `json:"days"`
}

func RegisterChannelRoutes(apiGroup *echo.Group, db *gorm.DB) {
	g := apiGroup.Group("/channels")

	g.GET("", func(c echo.Context) error {
		var rows []entity.ChannelAccount
		if err := db.Order("id ASC").Find(&rows).Error; err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, rows)
	})

	g.POST("", func(c echo.Context) error {
		var body accountBody
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		platform := strings.ToUpper(strings.TrimSpace(body.Platform))
		switch platform {
		case entity.PlatformShopee, entity.PlatformTikTok, entity.PlatformOffline:
		default:
			return api.Fail(c, apperr.Validation("unknown platform"))
		}
		row := entity.ChannelAccount{Platform: platform, Label: body.Label, Active: true}
		if body.Active != nil {
			row.Active = *body.Active
		}
		if err := db.Create(&row).Error; err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, row)
	})

	g.PUT("/:id", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		var body accountBody
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		account, err := channel.GetAccount(db, id)
		if err != nil {
			return api.Fail(c, err)
		}
		patch := map[string]interface{}{}
		if body.Label != "" {
			patch["label"] = body.Label
		}
		if body.Active != nil {
			patch["active"] = *body.Active
		}
		if len(patch) > 0 {
			if err := db.Model(account).Updates(patch).Error; err != nil {
				return api.Fail(c, err)
			}
		}
		return c.JSON(http.StatusOK, account)
	})

	// connect/init hands the browser the platform's consent URL. The
	// channel id rides along as the OAuth state so the callback knows
	// which account to bind the tokens to.
	g.GET("/:id/connect/init", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		account, err := channel.GetAccount(db, id)
		if err != nil {
			return api.Fail(c, err)
		}
		adapter, err := channel.AdapterFor(db, account)
		if err != nil {
			return api.Fail(c, err)
		}
		url, err := adapter.AuthURL(strconv.FormatUint(uint64(id), 10))
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"url": url})
	})

	g.GET("/oauth/shopee/callback", func(c echo.Context) error {
		shopID, _ := strconv.ParseInt(c.QueryParam("shop_id"), 10, 64)
		merchantID, _ := strconv.ParseInt(c.QueryParam("main_account_id"), 10, 64)
		if merchantID == 0 {
			merchantID, _ = strconv.ParseInt(c.QueryParam("merchant_id"), 10, 64)
		}
		return oauthCallback(c, db, entity.PlatformShopee, "shopee", marketplace.Identifiers{
			ShopID:     shopID,
			MerchantID: merchantID,
		})
	})

	g.GET("/oauth/tiktok/callback", func(c echo.Context) error {
		return oauthCallback(c, db, entity.PlatformTikTok, "tiktok", marketplace.Identifiers{})
	})

	g.POST("/:id/refresh", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		set, err := channel.Refresh(c.Request().Context(), db, id)
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"expireAt": set.ExpireAt})
	})

	g.POST("/:id/import", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		var body importBody
		if err := c.Bind(&body); err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		result, err := channel.ImportOrders(c.Request().Context(), db, api.ActorID(c), id, body.Days)
		if err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, result)
	})

	g.POST("/:id/sync-stock", func(c echo.Context) error {
		id, err := api.ParamID(c, "id")
		if err != nil {
			return api.Fail(c, err)
		}
		if err := channel.PushStock(c.Request().Context(), db, id, nil); err != nil {
			return api.Fail(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{"ok": true})
	})
}

// oauthCallback binds the exchanged tokens to the account named by the
// OAuth state, falling back to the first active account of the platform
// when the state is absent (some consoles drop it on re-authorization).
func oauthCallback(c echo.Context, db *gorm.DB, platform, slug string, ids marketplace.Identifiers) error {
	code := c.QueryParam("code")
	if code == "" {
		return api.Fail(c, apperr.Validation("missing code"))
	}

	var account entity.ChannelAccount
	if stateID, _ := strconv.ParseUint(c.QueryParam("state"), 10, 64); stateID > 0 {
		if err := db.First(&account, uint(stateID)).Error; err != nil {
			return api.Fail(c, apperr.New(apperr.KindChannelNotFound, "channel account not found"))
		}
	} else {
		err := db.Where("platform = ? AND active = ?", platform, true).
			Order("id ASC").First(&account).Error
		if err != nil {
			return api.Fail(c, apperr.New(apperr.KindChannelNotFound, "no active account for platform"))
		}
	}

	if err := channel.ExchangeCode(c.Request().Context(), db, account.ID, code, ids); err != nil {
		return api.Fail(c, err)
	}

	base := "http://localhost:3000"
	if cfg := config.AppConfig; cfg != nil && cfg.WebBaseURL != "" {
		base = cfg.WebBaseURL
	}
	return c.Redirect(http.StatusFound, base+"?connected="+slug)
}
