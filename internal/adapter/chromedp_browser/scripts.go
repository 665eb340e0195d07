package chromedp_browser

import (
	"encoding/json"
	"fmt"
	"time"
)

const scrollHeightScript = `document.body ? document.body.scrollHeight : 0`

const scrollToBottomScript = `window.scrollTo(0, document.body ? document.body.scrollHeight : 0)`

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func naturalSizeScript(url string, timeout time.Duration) string {
	return fmt.Sprintf(`new Promise((resolve) => {
	let settled = false;
	const done = (w, h) => { if (!settled) { settled = true; resolve({width: w, height: h}); } };
	const img = new Image();
	img.crossOrigin = 'anonymous';
	img.onload = () => done(img.naturalWidth || 0, img.naturalHeight || 0);
	img.onerror = () => done(0, 0);
	setTimeout(() => done(0, 0), %d);
	img.src = %s;
})`, timeout.Milliseconds(), jsString(url))
}

func clickScript(selector string) string {
	return fmt.Sprintf(`(() => {
	const el = document.querySelector(%s);
	if (!el) { return false; }
	el.scrollIntoView({block: 'center'});
	el.click();
	return true;
})()`, jsString(selector))
}

func countScript(selector string) string {
	return fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
}
