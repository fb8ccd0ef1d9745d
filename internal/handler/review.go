package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/rutaviva/tour-booking/internal/model"
    "github.com/rutaviva/tour-booking/internal/repository"
)

// ReviewHandler lets tourists review activities they actually attended.
type ReviewHandler struct {
    Reviews    *repository.ReviewRepo
    Activities *repository.ActivityRepo
}

func NewReviewHandler(r *repository.ReviewRepo, a *repository.ActivityRepo) *ReviewHandler {
    return &ReviewHandler{Reviews: r, Activities: a}
}

type reviewReq struct {
    Rating  uint8  `json:"rating"`
    Comment string `json:"comment"`
}

// Create posts a review on an activity.  Only users with a completed
// reservation on that activity may review it.
func (h *ReviewHandler) Create(c echo.Context) error {
    uid, ok := currentUserID(c)
    if !ok {
        return unauthorized(c, "unauthorized")
    }
    activityID, err := paramID(c, "id")
    if err != nil {
        return writeErr(c, err)
    }
    var req reviewReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if req.Rating < 1 || req.Rating > 5 {
        return badRequest(c, "rating must be between 1 and 5")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    if _, err := h.Activities.GetByID(ctx, activityID); err != nil {
        if err == repository.ErrActivityNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"status": http.StatusNotFound, "message": "activity not found"})
        }
        return writeErr(c, err)
    }

    attended, err := h.Reviews.HasCompletedReservation(ctx, activityID, uid)
    if err != nil {
        return writeErr(c, err)
    }
    if !attended {
        return c.JSON(http.StatusForbidden, echo.Map{"status": http.StatusForbidden, "message": "only attendees can review"})
    }

    rev := model.Review{
        ActivityID: activityID,
        UserID:     uid,
        Rating:     req.Rating,
        Comment:    strings.TrimSpace(req.Comment),
    }
    if err := h.Reviews.Insert(ctx, &rev); err != nil {
        return writeErr(c, err)
    }
    return c.JSON(http.StatusCreated, reviewResp{
        ID:        rev.ID,
        Rating:    rev.Rating,
        Comment:   rev.Comment,
        CreatedAt: rev.CreatedAt,
    })
}
