package handler

import (
    "context"
    "database/sql"
    "errors"
    "log"
    "net/http"
    "strconv"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"

    "github.com/apexsim/simstudio/internal/model"
    "github.com/apexsim/simstudio/internal/notify"
    "github.com/apexsim/simstudio/internal/repository"
)

// PackageHandler manages the hour packages on sale and the purchase
// flow that converts a package into credited hours.
type PackageHandler struct {
    Packages *repository.PackageRepo
    Credits  *repository.CreditRepo
    Users    *repository.UserRepo
    Mailer   notify.Sender
}

func NewPackageHandler(packages *repository.PackageRepo, credits *repository.CreditRepo, users *repository.UserRepo, mailer notify.Sender) *PackageHandler {
    if mailer == nil {
        mailer = notify.NoopSender{}
    }
    return &PackageHandler{Packages: packages, Credits: credits, Users: users, Mailer: mailer}
}

type packageReq struct {
    Name        string `json:"name"`
    Hours       uint32 `json:"hours"`
    PriceCents  int64  `json:"price_cents"`
    Description string `json:"description"`
}

type purchaseReq struct {
    PackageID uint64 `json:"packageId"`
}

// List handles GET /api/packages.  Customers only see packages that
// are currently on sale; admins see the full catalogue.
func (h *PackageHandler) List(c echo.Context) error {
    activeOnly := !isAdmin(c)
    items, err := h.Packages.List(c.Request().Context(), activeOnly)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load packages"})
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Create handles POST /api/packages.  Admin only.
func (h *PackageHandler) Create(c echo.Context) error {
    var req packageReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Name == "" || req.Hours == 0 || req.PriceCents < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, hours and a non-negative price are required"})
    }
    p := &model.Package{
        Name:        req.Name,
        Hours:       req.Hours,
        PriceCents:  uint32(req.PriceCents),
        Description: req.Description,
        IsActive:    true,
    }
    if err := h.Packages.Create(c.Request().Context(), p); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create package"})
    }
    return c.JSON(http.StatusCreated, p)
}

// Update handles PUT /api/packages?id=.  Admin only.
func (h *PackageHandler) Update(c echo.Context) error {
    id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
    }
    var req packageReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.Name == "" || req.Hours == 0 || req.PriceCents < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, hours and a non-negative price are required"})
    }
    p := model.Package{
        ID:          id,
        Name:        req.Name,
        Hours:       req.Hours,
        PriceCents:  uint32(req.PriceCents),
        Description: req.Description,
    }
    if err := h.Packages.Update(c.Request().Context(), p); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update package"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "package updated"})
}

// Delete handles DELETE /api/packages?id=.  Packages are taken off
// sale rather than removed so past purchases keep their reference.
func (h *PackageHandler) Delete(c echo.Context) error {
    id, err := strconv.ParseUint(c.QueryParam("id"), 10, 64)
    if err != nil || id == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid package id"})
    }
    if err := h.Packages.Deactivate(c.Request().Context(), id); err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to deactivate package"})
    }
    return c.JSON(http.StatusOK, echo.Map{"message": "package deactivated"})
}

// Purchase handles POST /api/purchases.  The package's hours are
// credited to the caller inside one transaction together with the
// audit entry carrying the generated payment reference.
func (h *PackageHandler) Purchase(c echo.Context) error {
    callerID, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req purchaseReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if req.PackageID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "packageId is required"})
    }
    ctx := c.Request().Context()
    pkg, err := h.Packages.GetByID(ctx, req.PackageID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "package not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load package"})
    }
    if !pkg.IsActive {
        return c.JSON(http.StatusConflict, echo.Map{"error": "package is no longer on sale"})
    }

    paymentRef := uuid.NewString()
    tx, err := h.Credits.DB().BeginTx(ctx, nil)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := h.Credits.PurchaseTx(ctx, tx, callerID, pkg.Hours, paymentRef); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to credit purchase"})
    }
    if err := tx.Commit(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
    }
    committed = true

    go h.sendReceipt(callerID, pkg, paymentRef)

    return c.JSON(http.StatusCreated, echo.Map{
        "payment_ref":  paymentRef,
        "package_id":   pkg.ID,
        "hours_added":  pkg.Hours,
        "amount_cents": pkg.PriceCents,
    })
}

func (h *PackageHandler) sendReceipt(userID uint64, pkg model.Package, paymentRef string) {
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    u, err := h.Users.GetByID(ctx, userID)
    if err != nil {
        return
    }
    err = h.Mailer.Send(ctx, notify.Message{
        To:      u.Email,
        Subject: "Receipt for " + pkg.Name,
        HTML: "<p>Thanks for your purchase. " + strconv.FormatUint(uint64(pkg.Hours), 10) +
            " simulator hours have been added to your account. Reference: " + paymentRef + "</p>",
    })
    if err != nil {
        log.Printf("purchase %s: receipt email failed: %v", paymentRef, err)
    }
}
