package pagination

import (
	"context"
	"fmt"
)

// Control is the outcome of looking for the pager button of one page.
type Control struct {
	Found    bool `json:"found"`
	Disabled bool `json:"disabled"`
	// Selector addresses the located button for ClickElement.
	Selector string `json:"-"`
}

// Locator finds the pager control for page n.
type Locator interface {
	Locate(ctx context.Context, page Page, n int) (Control, error)
}

// markerAttr tags the located button so it can be clicked by selector.
const markerAttr = "data-scrape-page"

// locateScript tries, in order: a button holding a Button_text span whose
// own text is n (XPath); a Button_button whose Button_text span reads n; any
// button whose text contains n; the parent button of a Button_text span
// reading n.
const locateScript = `(function (n) {
  var label = String(n);
  var first = function (xpath) {
    return document.evaluate(xpath, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
  };
  var btn = first("//button[.//span[contains(@class, 'Button_text') and text()='" + label + "']]");
  if (!btn) {
    var buttons = document.querySelectorAll("button[class*='Button_button']");
    for (var i = 0; i < buttons.length && !btn; i++) {
      var span = buttons[i].querySelector("span[class*='Button_text']");
      if (span && span.textContent.trim() === label) {
        btn = buttons[i];
      }
    }
  }
  if (!btn) {
    btn = first("//button[contains(text(), '" + label + "')]");
  }
  if (!btn) {
    var s = first("//span[contains(@class, 'Button_text') and text()='" + label + "']");
    if (s && s.parentElement && s.parentElement.tagName === 'BUTTON') {
      btn = s.parentElement;
    }
  }
  if (!btn) {
    return {found: false, disabled: false};
  }
  document.querySelectorAll('[%[2]s]').forEach(function (el) { el.removeAttribute('%[2]s'); });
  btn.setAttribute('%[2]s', label);
  var disabled = btn.getAttribute('disabled');
  return {found: true, disabled: disabled !== null && disabled !== 'false'};
})(%[1]d)`

// ScriptLocator runs the layered button search inside the page.
type ScriptLocator struct{}

func (ScriptLocator) Locate(ctx context.Context, page Page, n int) (Control, error) {
	var c Control
	if err := page.Evaluate(ctx, fmt.Sprintf(locateScript, n, markerAttr), &c); err != nil {
		return Control{}, fmt.Errorf("locate pager button %d: %w", n, err)
	}
	if c.Found {
		c.Selector = fmt.Sprintf(`[%s="%d"]`, markerAttr, n)
	}
	return c, nil
}
