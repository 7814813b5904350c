package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/eyewear-backend/internal/pkg/optics"
)

// AxisConversion is the result of an axis notation conversion
type AxisConversion struct {
	Value   float64         `json:"value"`
	From    optics.Notation `json:"from"`
	To      optics.Notation `json:"to"`
	Result  float64         `json:"result"`
	Rounded int             `json:"rounded"`
}

// ConvertAxis handles GET /optics/axis/convert?value=&from=int|tabo
func ConvertAxis(c *gin.Context) {
	value, err := strconv.ParseFloat(c.Query("value"), 64)
	if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
		err = strconv.ErrRange
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid axis value",
			"details": err.Error(),
		})
		return
	}

	from, err := optics.ParseNotation(c.DefaultQuery("from", string(optics.NotationINT)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid axis notation",
			"details": err.Error(),
		})
		return
	}

	to := optics.NotationTABO
	if from == optics.NotationTABO {
		to = optics.NotationINT
	}

	result := optics.Convert(value, from, to)
	c.JSON(http.StatusOK, gin.H{
		"message": "Axis converted successfully",
		"data": AxisConversion{
			Value:   value,
			From:    from,
			To:      to,
			Result:  result,
			Rounded: optics.RoundDegrees(result),
		},
	})
}
