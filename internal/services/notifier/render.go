package notifier

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Ramsey-B/rye/pkg/models"
)

// Subject builds the digest subject line.
func Subject(productCount int) string {
	if productCount == 1 {
		return "Watchlist Update - 1 Product"
	}
	return fmt.Sprintf("Watchlist Update - %d Products", productCount)
}

// DescribeChange renders one change event as a human readable line. Unknown
// change types get a generic description.
func DescribeChange(event *models.ChangeEvent) string {
	switch event.ChangeType {
	case models.ChangeTypeUp:
		return fmt.Sprintf("Inventory increased from %d to %d (+%d bottles)", event.OldQty, event.NewQty, event.NewQty-event.OldQty)
	case models.ChangeTypeDown:
		return fmt.Sprintf("Inventory decreased from %d to %d (-%d bottles)", event.OldQty, event.NewQty, event.OldQty-event.NewQty)
	case models.ChangeTypeFirst:
		return fmt.Sprintf("New arrival! %d bottles available", event.NewQty)
	case models.ChangeTypeZero:
		return fmt.Sprintf("Out of stock (was %d bottles)", event.OldQty)
	default:
		return fmt.Sprintf("Inventory changed from %d to %d", event.OldQty, event.NewQty)
	}
}

type digestEventView struct {
	StoreName   string
	Description string
	CheckTime   string
}

type digestProductView struct {
	Name   string
	PLU    int
	Events []digestEventView
}

type digestView struct {
	FirstName   string
	Products    []digestProductView
	FrontendURL string
}

var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>Watchlist Update</h2>
  <p>Hi {{if .FirstName}}{{.FirstName}}{{else}}there{{end}},</p>
  <p>The following products on your watchlist have new inventory activity:</p>
  {{range .Products}}
  <div style="margin-bottom: 16px;">
    <h3 style="margin-bottom: 4px;">{{.Name}} <span style="color: #888; font-weight: normal;">(PLU {{.PLU}})</span></h3>
    <ul style="margin-top: 4px;">
      {{range .Events}}
      <li>{{.StoreName}}: {{.Description}} <span style="color: #888;">({{.CheckTime}})</span></li>
      {{end}}
    </ul>
  </div>
  {{end}}
  <p style="margin-top: 24px; font-size: 12px; color: #888;">
    Manage your watchlist at <a href="{{.FrontendURL}}/watchlist">{{.FrontendURL}}/watchlist</a>.
  </p>
</body>
</html>`))

// RenderDigest builds the HTML body for one user's digest email. Store names
// fall back to the store number, then to a generic label.
func RenderDigest(digest *models.Digest, storeNames map[int]string, frontendURL string) (string, error) {
	view := digestView{
		FirstName:   digest.FirstName,
		FrontendURL: frontendURL,
		Products:    make([]digestProductView, 0, len(digest.Products)),
	}

	for _, product := range digest.Products {
		name := product.Name
		if name == "" {
			name = fmt.Sprintf("PLU %d", product.PLU)
		}

		pv := digestProductView{
			Name:   name,
			PLU:    product.PLU,
			Events: make([]digestEventView, 0, len(product.Events)),
		}

		for _, event := range product.Events {
			storeName, ok := storeNames[event.StoreID]
			if !ok || storeName == "" {
				storeName = "Unknown Store"
			}

			pv.Events = append(pv.Events, digestEventView{
				StoreName:   storeName,
				Description: DescribeChange(&event),
				CheckTime:   event.CheckTime.Format(time.RFC822),
			})
		}

		view.Products = append(view.Products, pv)
	}

	var sb strings.Builder
	if err := digestTemplate.Execute(&sb, view); err != nil {
		return "", err
	}
	return sb.String(), nil
}
