package window

import (
	"fmt"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xinerama"
	"github.com/BurntSushi/xgb/xproto"
)

// monitorRect is one display's region in root coordinates.
type monitorRect struct {
	x, y          int
	width, height int
}

// X11Source reads the focused window's title and monitor over the X
// protocol. Monitor indices follow Xinerama screen order, matching the
// ids used in monitor_scenes bindings.
type X11Source struct {
	conn     *xgb.Conn
	root     xproto.Window
	monitors []monitorRect
}

// NewX11Source connects to the X server and queries the monitor layout.
// Without the Xinerama extension a single monitor with id 0 is assumed.
func NewX11Source() (*X11Source, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	s := &X11Source{
		conn: conn,
		root: screen.Root,
	}

	if err := xinerama.Init(conn); err == nil {
		if reply, err := xinerama.QueryScreens(conn).Reply(); err == nil {
			for _, info := range reply.ScreenInfo {
				s.monitors = append(s.monitors, monitorRect{
					x:      int(info.XOrg),
					y:      int(info.YOrg),
					width:  int(info.Width),
					height: int(info.Height),
				})
			}
		}
	}
	if len(s.monitors) == 0 {
		s.monitors = []monitorRect{{
			width:  int(screen.WidthInPixels),
			height: int(screen.HeightInPixels),
		}}
	}

	return s, nil
}

// Name identifies the backend.
func (s *X11Source) Name() string { return "x11" }

// Sample returns the focused window's monitor and title. A focus holder
// without a readable title (or no focus holder at all) yields a single
// sample with an empty title.
func (s *X11Source) Sample() ([]FocusSample, error) {
	focusReply, err := xproto.GetInputFocus(s.conn).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to query input focus: %w", err)
	}

	win := focusReply.Focus
	if win == xproto.WindowNone || win == xproto.Window(xproto.InputFocusPointerRoot) {
		return []FocusSample{{Monitor: MonitorUnknown}}, nil
	}

	title := s.windowTitle(win)
	monitor := s.windowMonitor(win)
	return []FocusSample{{Monitor: monitor, Title: title}}, nil
}

// Close disconnects from the X server.
func (s *X11Source) Close() error {
	s.conn.Close()
	return nil
}

// windowTitle reads _NET_WM_NAME, falling back to WM_NAME. Focus often
// lands on a child of the visible top-level window, so the title search
// climbs toward the root until something is named.
func (s *X11Source) windowTitle(win xproto.Window) string {
	for depth := 0; depth < 8 && win != xproto.WindowNone && win != s.root; depth++ {
		if title := s.titleOf(win); title != "" {
			return title
		}
		tree, err := xproto.QueryTree(s.conn, win).Reply()
		if err != nil {
			break
		}
		win = tree.Parent
	}
	return ""
}

func (s *X11Source) titleOf(win xproto.Window) string {
	if atom, err := s.getAtom("_NET_WM_NAME"); err == nil {
		if title, err := s.getProperty(win, atom); err == nil && title != "" {
			return title
		}
	}
	if atom, err := s.getAtom("WM_NAME"); err == nil {
		if title, err := s.getProperty(win, atom); err == nil {
			return title
		}
	}
	return ""
}

// windowMonitor maps the window's center point to a monitor index.
func (s *X11Source) windowMonitor(win xproto.Window) int {
	geom, err := xproto.GetGeometry(s.conn, xproto.Drawable(win)).Reply()
	if err != nil {
		return MonitorUnknown
	}

	// Geometry is relative to the parent; translate to root coordinates.
	trans, err := xproto.TranslateCoordinates(s.conn, win, s.root, 0, 0).Reply()
	if err != nil {
		return MonitorUnknown
	}

	centerX := int(trans.DstX) + int(geom.Width)/2
	centerY := int(trans.DstY) + int(geom.Height)/2
	return monitorAt(s.monitors, centerX, centerY)
}

// monitorAt returns the index of the monitor containing (x, y), or 0 when
// the point falls outside every region.
func monitorAt(monitors []monitorRect, x, y int) int {
	for i, m := range monitors {
		if x >= m.x && x < m.x+m.width && y >= m.y && y < m.y+m.height {
			return i
		}
	}
	return 0
}

// getAtom gets an atom ID by name
func (s *X11Source) getAtom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(s.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}

// getProperty gets a property value as a string
func (s *X11Source) getProperty(win xproto.Window, atom xproto.Atom) (string, error) {
	reply, err := xproto.GetProperty(
		s.conn,
		false,
		win,
		atom,
		xproto.GetPropertyTypeAny,
		0,
		(1<<32)-1,
	).Reply()
	if err != nil {
		return "", err
	}

	if reply.ValueLen == 0 {
		return "", fmt.Errorf("empty property")
	}

	return string(reply.Value), nil
}
