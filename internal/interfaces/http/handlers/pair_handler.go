package handlers

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"ringbridge/pkg/utils"
)

// PairHandler serves the browser pairing page that walks the user through
// logging in to Ring and binding the result to the watch's user code.
type PairHandler struct {
	page *template.Template
}

// NewPairHandler creates a new PairHandler.
func NewPairHandler() *PairHandler {
	return &PairHandler{page: template.Must(template.New("pair").Parse(pairPage))}
}

// Show handles GET /pair?code=... and renders the pairing page with the user
// code pre-filled when one was passed.
func (h *PairHandler) Show(c *gin.Context) {
	code := utils.NormalizeUserCode(c.Query("code"))
	if !utils.IsWellFormedUserCode(code) {
		code = ""
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	_ = h.page.Execute(c.Writer, gin.H{"Code": code})
}

const pairPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Pair your watch</title>
<style>
  body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f5f5f7; margin: 0; }
  .card { max-width: 380px; margin: 48px auto; background: #fff; border-radius: 12px; padding: 28px; box-shadow: 0 2px 12px rgba(0,0,0,.08); }
  h1 { font-size: 1.3rem; margin: 0 0 6px; }
  p.hint { color: #666; font-size: .88rem; margin: 0 0 18px; }
  label { display: block; font-size: .82rem; color: #444; margin: 12px 0 4px; }
  input { width: 100%; box-sizing: border-box; padding: 10px; border: 1px solid #ccc; border-radius: 8px; font-size: 1rem; }
  input.code { text-transform: uppercase; letter-spacing: .15em; text-align: center; }
  button { width: 100%; margin-top: 18px; padding: 12px; border: 0; border-radius: 8px; background: #0a66ff; color: #fff; font-size: 1rem; cursor: pointer; }
  button:disabled { background: #9bbcf5; }
  .msg { margin-top: 14px; font-size: .88rem; text-align: center; }
  .msg.error { color: #c0392b; }
  .msg.ok { color: #1e7e34; }
  .hidden { display: none; }
</style>
</head>
<body>
<div class="card">
  <h1>Pair your watch</h1>
  <p class="hint">Sign in with your Ring account to finish pairing.</p>

  <form id="login-form">
    <label for="code">Pairing code</label>
    <input id="code" class="code" value="{{.Code}}" placeholder="ABCD-12" maxlength="7" autocomplete="off" required>
    <label for="email">Email</label>
    <input id="email" type="email" autocomplete="username" required>
    <label for="password">Password</label>
    <input id="password" type="password" autocomplete="current-password" required>
    <button id="login-btn" type="submit">Sign in</button>
  </form>

  <form id="otp-form" class="hidden">
    <label for="otp">Verification code</label>
    <input id="otp" inputmode="numeric" autocomplete="one-time-code" placeholder="123456" required>
    <button id="otp-btn" type="submit">Verify</button>
  </form>

  <div id="msg" class="msg"></div>
</div>

<script>
(function () {
  var msg = document.getElementById('msg');
  var loginForm = document.getElementById('login-form');
  var otpForm = document.getElementById('otp-form');

  function show(text, cls) { msg.textContent = text; msg.className = 'msg ' + (cls || ''); }

  function post(path, body) {
    return fetch(path, {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify(body)
    }).then(function (r) { return r.json(); });
  }

  function authorize() {
    var code = document.getElementById('code').value.trim().toUpperCase();
    var email = document.getElementById('email').value.trim();
    post('/device/authorize', { user_code: code, email: email, token: '' })
      .then(function (res) {
        if (res.ok) {
          show('Paired. You can return to your watch.', 'ok');
          loginForm.classList.add('hidden');
          otpForm.classList.add('hidden');
        } else {
          show('Pairing failed: ' + (res.error || 'unknown error'), 'error');
        }
      })
      .catch(function () { show('Pairing failed: network error', 'error'); });
  }

  loginForm.addEventListener('submit', function (ev) {
    ev.preventDefault();
    var btn = document.getElementById('login-btn');
    btn.disabled = true;
    show('Signing in…');
    post('/auth/login', {
      email: document.getElementById('email').value.trim(),
      password: document.getElementById('password').value
    }).then(function (res) {
      btn.disabled = false;
      if (res.status === 'ok') {
        authorize();
      } else if (res.status === '2fa-required') {
        show('Enter the verification code sent to you.');
        otpForm.classList.remove('hidden');
        document.getElementById('otp').focus();
      } else {
        show('Sign-in failed: ' + (res.message || res.status), 'error');
      }
    }).catch(function () {
      btn.disabled = false;
      show('Sign-in failed: network error', 'error');
    });
  });

  otpForm.addEventListener('submit', function (ev) {
    ev.preventDefault();
    var btn = document.getElementById('otp-btn');
    btn.disabled = true;
    show('Verifying…');
    post('/auth/2fa', {
      email: document.getElementById('email').value.trim(),
      code: document.getElementById('otp').value.trim()
    }).then(function () {
      // The CLI confirms the code by emitting the credential; give it a moment.
      setTimeout(function () { btn.disabled = false; authorize(); }, 2500);
    }).catch(function () {
      btn.disabled = false;
      show('Verification failed: network error', 'error');
    });
  });
})();
</script>
</body>
</html>
`
