package kmain

import "textos/device/video/console"

// banner is drawn at boot. Each character class is drawn in its own color;
// see bannerColor.
var banner = [...]string{
	" ##### ##### #   # #####  ###   ####",
	"   #   #      # #    #   #   # #",
	"   #   ####    #     #   #   #  ###",
	"   #   #      # #    #   #   #     #",
	"   #   ##### #   #   #    ###  ####",
	" ==================================",
}

// bannerColor maps a banner character to its foreground color. This is a
// switch rather than a map as maps require an allocator.
func bannerColor(ch byte) console.Attr {
	switch ch {
	case '#':
		return console.LightMagenta
	case '=':
		return console.LightBlue
	case '.':
		return console.Grey
	default:
		return console.White
	}
}

// printBanner draws the banner at the cursor and restores the attribute that
// was active before the call.
func printBanner(cons *console.Console) {
	prev := cons.Attr()

	for _, line := range banner {
		for i := 0; i < len(line); i++ {
			cons.SetColor(bannerColor(line[i]), prev.Bg())
			cons.WriteChar(line[i])
		}
		cons.WriteChar('\n')
	}

	cons.SetColor(prev.Fg(), prev.Bg())
}
